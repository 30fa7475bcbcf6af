package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CachingClassifier wraps a SpamClassifier with a fingerprint-keyed
// prediction cache. Verdicts are cached by metadata fingerprint, so two
// providers returning equivalent metadata share a single model call.
type CachingClassifier struct {
	backend      SpamClassifier
	cache        PredictionCache
	metrics      MetricsSink
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
}

// NewCachingClassifier creates a new caching classifier.
func NewCachingClassifier(
	backend SpamClassifier,
	cache PredictionCache,
	metrics MetricsSink,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
) *CachingClassifier {
	return &CachingClassifier{
		backend:      backend,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		cacheEnabled: cacheEnabled,
		cacheTTL:     cacheTTL,
	}
}

// Classify checks the prediction cache before delegating to the model
// backend, and stores fresh verdicts on the way out. Cache failures degrade
// to an uncached model call rather than failing the classification.
func (c *CachingClassifier) Classify(ctx context.Context, chainID ChainID, metadata *ContractMetadata) (*ClassificationResult, error) {
	fp := ComputeFingerprint(chainID, metadata)

	if c.cacheEnabled {
		entry, err := c.cache.Get(ctx, fp)
		switch {
		case err != nil:
			c.logger.Error("Prediction cache lookup failed",
				zap.String("fingerprint", string(fp)),
				zap.Error(err))
		case entry != nil:
			c.metrics.CacheLookup(true)
			c.logger.Debug("Prediction cache hit",
				zap.String("fingerprint", string(fp)))
			return &ClassificationResult{
				IsSpam:       entry.IsSpam,
				Message:      entry.Message,
				ModelUsed:    "cache",
				Cached:       true,
				ClassifiedAt: time.Now(),
			}, nil
		default:
			c.metrics.CacheLookup(false)
		}
	}

	result, err := c.backend.Classify(ctx, chainID, metadata)
	if err != nil {
		c.metrics.ClassifierCall("error")
		return nil, err
	}
	c.metrics.ClassifierCall("ok")

	if c.cacheEnabled {
		now := time.Now()
		entry := &CacheEntry{
			Fingerprint: fp,
			IsSpam:      result.IsSpam,
			Message:     result.Message,
			CreatedAt:   now,
			ExpiresAt:   now.Add(c.cacheTTL),
		}
		if err := c.cache.Put(ctx, entry); err != nil {
			c.logger.Error("Failed to update prediction cache",
				zap.String("fingerprint", string(fp)),
				zap.Error(err))
		}
	}

	return result, nil
}

// HealthCheck delegates to the model backend.
func (c *CachingClassifier) HealthCheck(ctx context.Context) ProviderHealth {
	return c.backend.HealthCheck(ctx)
}

// Close releases the backend client when it holds resources.
func (c *CachingClassifier) Close() error {
	if closer, ok := c.backend.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
