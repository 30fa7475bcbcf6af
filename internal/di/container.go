package di

import (
	"fmt"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/adapters/httpserver"
	"github.com/mikey/contract-spam-filter/internal/chains"
	"github.com/mikey/contract-spam-filter/internal/config"
	"github.com/mikey/contract-spam-filter/internal/core"
	"github.com/mikey/contract-spam-filter/internal/factory"
	"github.com/mikey/contract-spam-filter/internal/logging"
	"github.com/mikey/contract-spam-filter/internal/metrics"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(metrics.NewSink); err != nil {
		return nil, err
	}
	if err := container.Provide(func(s *metrics.Sink) core.MetricsSink { return s }); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewRegistryFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewProviderFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}

	// Register chain registry
	if err := container.Provide(func(f *factory.RegistryFactory) (*chains.Registry, error) {
		return f.CreateRegistry()
	}); err != nil {
		return nil, err
	}

	// Register metadata providers
	if err := container.Provide(func(f *factory.ProviderFactory) (map[string]core.MetadataProvider, error) {
		return f.CreateProviders()
	}); err != nil {
		return nil, err
	}

	// Register prediction cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.PredictionCache, error) {
		return f.CreatePredictionCache()
	}); err != nil {
		return nil, err
	}

	// Register provider metadata cache (nil when disabled)
	if err := container.Provide(func(f *factory.CacheFactory) (core.MetadataCache, error) {
		return f.CreateMetadataCache()
	}); err != nil {
		return nil, err
	}

	// Register classifier (backend wrapped with the prediction cache)
	if err := container.Provide(func(
		f *factory.ClassifierFactory,
		cache core.PredictionCache,
		sink core.MetricsSink,
	) (core.SpamClassifier, error) {
		return f.CreateClassifier(cache, sink)
	}); err != nil {
		return nil, err
	}

	// Register aggregator service
	if err := container.Provide(func(
		cfg *config.Config,
		registry *chains.Registry,
		providers map[string]core.MetadataProvider,
		classifier core.SpamClassifier,
		metadataCache core.MetadataCache,
		sink core.MetricsSink,
		logger *zap.Logger,
	) *core.AggregatorService {
		oc := cfg.GetOrchestrator()
		return core.NewAggregatorService(
			registry,
			providers,
			classifier,
			metadataCache,
			oc.ProviderPriority,
			oc.FanOutWidth,
			sink,
			logger,
		)
	}); err != nil {
		return nil, err
	}

	// Register health aggregator over providers enabled on at least one
	// enabled chain
	if err := container.Provide(func(
		registry *chains.Registry,
		providers map[string]core.MetadataProvider,
		classifier core.SpamClassifier,
		logger *zap.Logger,
	) *core.HealthAggregator {
		enabled := make(map[string]bool)
		for _, chain := range registry.All() {
			if !chain.Enabled {
				continue
			}
			for _, name := range chain.EnabledProviders() {
				enabled[name] = true
			}
		}
		var checked []core.MetadataProvider
		for name, p := range providers {
			if enabled[name] {
				checked = append(checked, p)
			}
		}
		return core.NewHealthAggregator(checked, classifier, 0, logger)
	}); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(func(
		cfg *config.Config,
		service *core.AggregatorService,
		health *core.HealthAggregator,
		logger *zap.Logger,
	) (*httpserver.Server, error) {
		sc := cfg.GetServer()
		requestTimeout, err := time.ParseDuration(sc.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid server request timeout: %w", err)
		}
		return httpserver.NewServer(service, health, logger, sc.ListenAddress, requestTimeout), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}
