package core

import (
	"context"
)

// MetadataProvider defines the capability set of an external contract
// metadata source.
type MetadataProvider interface {
	// Name returns the stable provider identifier used for priority
	// ordering, diagnostics and health reporting.
	Name() string

	// FetchMetadata retrieves metadata for one contract. A contract the
	// provider does not know yields a ProviderError with kind NotFound.
	FetchMetadata(ctx context.Context, chainID ChainID, address Address) (*ContractMetadata, error)

	// HealthCheck probes the provider with a cheap request bounded by its
	// own timeout, independent of FetchMetadata's.
	HealthCheck(ctx context.Context) ProviderHealth
}

// SpamClassifier turns contract metadata into a spam verdict.
type SpamClassifier interface {
	Classify(ctx context.Context, chainID ChainID, metadata *ContractMetadata) (*ClassificationResult, error)
	HealthCheck(ctx context.Context) ProviderHealth
}

// PredictionCache stores spam verdicts keyed by classification fingerprint.
// Implementations must be safe for concurrent use; callers never lock.
type PredictionCache interface {
	// Get returns the cached entry or nil on miss. Expired entries are
	// misses.
	Get(ctx context.Context, fp Fingerprint) (*CacheEntry, error)

	// Put stores a new entry. At capacity the least recently used entry
	// is evicted.
	Put(ctx context.Context, entry *CacheEntry) error
}

// MetadataCache stores merged provider lookups keyed by (chain, address) so
// repeat requests skip the provider fan-out entirely. A lookup with nil
// Metadata records that no provider knows the contract; provider failures
// are never stored. Implementations must be safe for concurrent use.
type MetadataCache interface {
	// Get returns the cached lookup for the contract, or ok=false on miss.
	// Expired entries are misses.
	Get(chainID ChainID, address Address) (MetadataLookup, bool)

	// Put stores a lookup outcome. At capacity the least recently used
	// entry is evicted.
	Put(chainID ChainID, address Address, lookup MetadataLookup)
}

// MetricsSink receives pipeline events. The core emits events through this
// interface instead of doing metrics I/O itself.
type MetricsSink interface {
	ProviderCall(provider string, outcome string)
	CacheLookup(hit bool)
	ClassifierCall(outcome string)
	RequestCompleted(chainID ChainID, addresses int, seconds float64)
}

// NopMetrics discards all events. Useful for tests and the CLI.
type NopMetrics struct{}

func (NopMetrics) ProviderCall(string, string)            {}
func (NopMetrics) CacheLookup(bool)                       {}
func (NopMetrics) ClassifierCall(string)                  {}
func (NopMetrics) RequestCompleted(ChainID, int, float64) {}
