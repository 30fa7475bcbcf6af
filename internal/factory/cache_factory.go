package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/adapters/cache"
	"github.com/mikey/contract-spam-filter/internal/config"
	"github.com/mikey/contract-spam-filter/internal/core"
)

// CacheFactory creates prediction caches based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreatePredictionCache creates a prediction cache based on the configuration
func (f *CacheFactory) CreatePredictionCache() (core.PredictionCache, error) {
	cacheCfg := f.cfg.GetCache()

	ttl, err := time.ParseDuration(cacheCfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid cache TTL: %w", err)
	}
	cleanupFreq, err := time.ParseDuration(cacheCfg.CleanupFrequency)
	if err != nil {
		return nil, fmt.Errorf("invalid cache cleanup frequency: %w", err)
	}

	switch cacheCfg.Type {
	case "memory":
		return cache.NewMemoryCache(cacheCfg.Capacity, ttl, cleanupFreq, f.logger)
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(cacheCfg.SqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return cache.NewSQLiteCache(cacheCfg.SqlitePath, cacheCfg.Capacity, ttl, cleanupFreq, f.logger)
	case "mysql":
		return cache.NewMySQLCache(cacheCfg.MySQLDSN, cacheCfg.Capacity, ttl, cleanupFreq, f.logger)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheCfg.Type)
	}
}

// CreateMetadataCache creates the provider metadata cache, or nil when it is
// disabled.
func (f *CacheFactory) CreateMetadataCache() (core.MetadataCache, error) {
	pc := f.cfg.GetProviderCache()
	if !pc.Enabled {
		return nil, nil
	}
	ttl, err := time.ParseDuration(pc.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid provider cache TTL: %w", err)
	}
	mc, err := cache.NewMetadataCache(pc.Capacity, ttl, f.logger)
	if err != nil {
		return nil, err
	}
	return mc, nil
}

// IsCacheEnabled returns whether caching is enabled
func (f *CacheFactory) IsCacheEnabled() bool {
	return f.cfg.GetBool("cache.enabled")
}
