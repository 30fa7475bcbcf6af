package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ChainValidator reports whether a chain can serve contract status requests
// and which metadata providers are enabled for it.
type ChainValidator interface {
	EnabledProvidersFor(id ChainID) ([]string, error)
}

// AggregatorService is the core orchestrator: it validates a request against
// the chain registry, fans out to the enabled metadata providers, merges the
// per-provider outcomes by priority, and classifies the merged metadata.
type AggregatorService struct {
	registry      ChainValidator
	providers     map[string]MetadataProvider
	classifier    SpamClassifier
	metadataCache MetadataCache
	priority      []string
	fanOutWidth   int
	metrics       MetricsSink
	logger        *zap.Logger
}

// NewAggregatorService creates a new aggregator service. priority lists
// provider names most-trusted first; providers absent from it sort last.
// metadataCache may be nil, in which case every request hits the providers.
func NewAggregatorService(
	registry ChainValidator,
	providers map[string]MetadataProvider,
	classifier SpamClassifier,
	metadataCache MetadataCache,
	priority []string,
	fanOutWidth int,
	metrics MetricsSink,
	logger *zap.Logger,
) *AggregatorService {
	if fanOutWidth <= 0 {
		fanOutWidth = 8
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &AggregatorService{
		registry:      registry,
		providers:     providers,
		classifier:    classifier,
		metadataCache: metadataCache,
		priority:      priority,
		fanOutWidth:   fanOutWidth,
		metrics:       metrics,
		logger:        logger,
	}
}

// fetchOutcome is one provider's answer for one address.
type fetchOutcome struct {
	provider string
	metadata *ContractMetadata
	err      error
}

// HandleContractStatus resolves the spam status of each address on the given
// chain. Exactly one result per unique address; individual provider or
// classifier failures degrade that address's result, they never abort the
// batch. Cancellation of ctx fails the request as a unit.
func (s *AggregatorService) HandleContractStatus(ctx context.Context, chainID ChainID, rawAddresses []string) (map[Address]ContractStatusResult, error) {
	started := time.Now()

	if len(rawAddresses) == 0 {
		return nil, NewRequestError("address list cannot be empty")
	}
	addresses, err := DedupAddresses(rawAddresses)
	if err != nil {
		return nil, err
	}

	enabled, err := s.registry.EnabledProvidersFor(chainID)
	if err != nil {
		return nil, err
	}
	ordered := s.orderByPriority(enabled)
	if len(ordered) == 0 {
		return nil, NewRequestError("no usable metadata providers for chain %d", chainID)
	}

	// Addresses resolved on a previous request skip the fan-out. A cached
	// lookup covers clean misses too; only provider failures go back out.
	cached := make([]*MetadataLookup, len(addresses))
	if s.metadataCache != nil {
		for i, addr := range addresses {
			if lookup, ok := s.metadataCache.Get(chainID, addr); ok {
				lookup := lookup
				cached[i] = &lookup
			}
		}
	}

	// Phase 1: independent fetch per address x provider.
	outcomes := make([][]fetchOutcome, len(addresses))
	for i := range outcomes {
		outcomes[i] = make([]fetchOutcome, len(ordered))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOutWidth)
	for i, addr := range addresses {
		if cached[i] != nil {
			continue
		}
		for j, provider := range ordered {
			i, j, addr, provider := i, j, addr, provider
			g.Go(func() error {
				md, err := provider.FetchMetadata(gctx, chainID, addr)
				outcomes[i][j] = fetchOutcome{provider: provider.Name(), metadata: md, err: err}
				s.recordProviderCall(provider.Name(), err)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 2: merge and classify per address.
	results := make([]ContractStatusResult, len(addresses))
	cg, cctx := errgroup.WithContext(ctx)
	cg.SetLimit(s.fanOutWidth)
	for i, addr := range addresses {
		i, addr := i, addr
		cg.Go(func() error {
			results[i] = s.resolveAddress(cctx, chainID, addr, outcomes[i], cached[i])
			return nil
		})
	}
	if err := cg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[Address]ContractStatusResult, len(addresses))
	for i, addr := range addresses {
		out[addr] = results[i]
	}
	s.metrics.RequestCompleted(chainID, len(addresses), time.Since(started).Seconds())
	return out, nil
}

// resolveAddress merges the per-provider outcomes for one address by priority
// order and classifies the winning metadata. A non-nil lookup replaces the
// merge entirely. Winning metadata and all-providers-miss outcomes are stored
// for the next request; outcomes tainted by provider failures are not.
func (s *AggregatorService) resolveAddress(ctx context.Context, chainID ChainID, addr Address, fetched []fetchOutcome, lookup *MetadataLookup) ContractStatusResult {
	result := ContractStatusResult{
		ChainID: chainID,
		Address: addr,
	}

	if lookup != nil {
		if lookup.Metadata == nil {
			result.Message = "contract not found on any provider"
			return result
		}
		return s.classify(ctx, chainID, addr, lookup.Metadata, result)
	}

	var winner *ContractMetadata
	var winnerProvider string
	var failures []string
	allNotFound := true
	for _, o := range fetched {
		switch {
		case o.err == nil && o.metadata != nil:
			if winner == nil {
				winner = o.metadata
				winnerProvider = o.provider
			}
			allNotFound = false
		case IsNotFound(o.err):
			// A clean miss, not a failure.
		default:
			allNotFound = false
			failures = append(failures, fmt.Sprintf("%s: %s", o.provider, KindOf(o.err)))
			if IsUnauthorized(o.err) {
				s.logger.Error("Provider rejected credentials",
					zap.String("provider", o.provider),
					zap.Uint64("chain_id", uint64(chainID)),
					zap.Error(o.err))
			} else {
				s.logger.Warn("Provider fetch failed",
					zap.String("provider", o.provider),
					zap.Uint64("chain_id", uint64(chainID)),
					zap.String("address", addr.Short()),
					zap.Error(o.err))
			}
		}
	}

	if winner == nil {
		switch {
		case allNotFound:
			if s.metadataCache != nil {
				s.metadataCache.Put(chainID, addr, MetadataLookup{})
			}
			result.Message = "contract not found on any provider"
		case len(failures) == len(fetched):
			result.Message = fmt.Sprintf("all metadata providers failed (%s)", strings.Join(failures, "; "))
		default:
			result.Message = fmt.Sprintf("contract not found; some providers failed (%s)", strings.Join(failures, "; "))
		}
		return result
	}

	if s.metadataCache != nil {
		s.metadataCache.Put(chainID, addr, MetadataLookup{Metadata: winner, Provider: winnerProvider})
	}
	return s.classify(ctx, chainID, addr, winner, result)
}

// classify runs the spam classifier over merged metadata, degrading the
// result instead of failing on classifier errors.
func (s *AggregatorService) classify(ctx context.Context, chainID ChainID, addr Address, winner *ContractMetadata, result ContractStatusResult) ContractStatusResult {
	classification, err := s.classifier.Classify(ctx, chainID, winner)
	if err != nil {
		if IsUnauthorized(err) {
			s.logger.Error("Classifier rejected credentials", zap.Error(err))
		} else {
			s.logger.Warn("Classification failed",
				zap.Uint64("chain_id", uint64(chainID)),
				zap.String("address", addr.Short()),
				zap.Error(err))
		}
		result.Message = "classification unavailable"
		return result
	}

	verdict := classification.IsSpam
	result.Spam = &verdict
	result.Message = classification.Message
	return result
}

// orderByPriority sorts enabled provider names by the configured priority and
// resolves them to clients. Unknown names are skipped with a warning.
func (s *AggregatorService) orderByPriority(enabled []string) []MetadataProvider {
	seen := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		seen[name] = true
	}

	var ordered []MetadataProvider
	take := func(name string) {
		if !seen[name] {
			return
		}
		seen[name] = false
		p, ok := s.providers[name]
		if !ok {
			s.logger.Warn("Chain enables a provider with no configured client",
				zap.String("provider", name))
			return
		}
		ordered = append(ordered, p)
	}
	for _, name := range s.priority {
		take(name)
	}
	for _, name := range enabled {
		take(name)
	}
	return ordered
}

func (s *AggregatorService) recordProviderCall(name string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	s.metrics.ProviderCall(name, outcome)
}
