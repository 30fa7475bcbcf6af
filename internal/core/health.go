package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthAggregator runs concurrent health checks against every enabled
// dependency and folds them into a single service status.
type HealthAggregator struct {
	providers    []MetadataProvider
	classifier   SpamClassifier
	checkTimeout time.Duration
	logger       *zap.Logger
}

// NewHealthAggregator creates a new health aggregator. providers should
// already be deduplicated to those enabled on at least one enabled chain;
// classifier may be nil when classification is disabled.
func NewHealthAggregator(
	providers []MetadataProvider,
	classifier SpamClassifier,
	checkTimeout time.Duration,
	logger *zap.Logger,
) *HealthAggregator {
	if checkTimeout <= 0 {
		checkTimeout = 5 * time.Second
	}
	return &HealthAggregator{
		providers:    providers,
		classifier:   classifier,
		checkTimeout: checkTimeout,
		logger:       logger,
	}
}

// Snapshot checks every dependency concurrently, each bounded by its own
// timeout. The service is up only when every checked dependency is up; with
// nothing to check it is trivially up.
func (h *HealthAggregator) Snapshot(ctx context.Context) ServiceHealth {
	type check func(context.Context) ProviderHealth

	var checks []check
	for _, p := range h.providers {
		p := p
		checks = append(checks, func(ctx context.Context) ProviderHealth {
			return p.HealthCheck(ctx)
		})
	}
	if h.classifier != nil {
		checks = append(checks, func(ctx context.Context) ProviderHealth {
			return h.classifier.HealthCheck(ctx)
		})
	}

	deps := make([]ProviderHealth, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		i, c := i, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, h.checkTimeout)
			defer cancel()
			deps[i] = c(checkCtx)
		}()
	}
	wg.Wait()

	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })

	status := StatusUp
	for _, d := range deps {
		if !d.Up {
			status = StatusDegraded
			h.logger.Warn("Dependency unhealthy",
				zap.String("dependency", d.Name),
				zap.String("reason", d.Reason))
		}
	}

	return ServiceHealth{
		Status:       status,
		Dependencies: deps,
		CheckedAt:    time.Now(),
	}
}
