package factory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/adapters/bedrock"
	"github.com/mikey/contract-spam-filter/internal/adapters/gemini"
	"github.com/mikey/contract-spam-filter/internal/adapters/openai"
	"github.com/mikey/contract-spam-filter/internal/config"
	"github.com/mikey/contract-spam-filter/internal/core"
)

// ClassifierFactory creates spam classifier backends
type ClassifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClassifier creates the configured model backend wrapped with the
// prediction cache.
func (f *ClassifierFactory) CreateClassifier(cache core.PredictionCache, metrics core.MetricsSink) (core.SpamClassifier, error) {
	backend, err := f.createBackend()
	if err != nil {
		return nil, err
	}

	cacheCfg := f.cfg.GetCache()
	ttl, err := time.ParseDuration(cacheCfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid cache TTL: %w", err)
	}

	return core.NewCachingClassifier(
		backend,
		cache,
		metrics,
		f.logger,
		cacheCfg.Enabled,
		ttl,
	), nil
}

func (f *ClassifierFactory) createBackend() (core.SpamClassifier, error) {
	cc := f.cfg.GetClassifier()
	prompt, err := cc.Prompt()
	if err != nil {
		return nil, err
	}
	healthTimeout, err := time.ParseDuration(cc.HealthTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid classifier health timeout: %w", err)
	}

	switch cc.Backend {
	case "openai":
		oc := f.cfg.GetOpenAI()
		return openai.NewClassifier(
			oc.APIKey,
			oc.BaseURL,
			oc.ModelName,
			prompt,
			cc.MaxTokens,
			cc.Temperature,
			cc.MaxRetries,
			healthTimeout,
			f.logger,
		)
	case "bedrock":
		bc := f.cfg.GetBedrock()
		return bedrock.NewClassifier(
			context.Background(),
			bc.Region,
			bc.ModelID,
			prompt,
			cc.MaxTokens,
			cc.Temperature,
			cc.MaxRetries,
			healthTimeout,
			f.logger,
		)
	case "gemini":
		gc := f.cfg.GetGemini()
		return gemini.NewClassifier(
			context.Background(),
			gc.APIKey,
			gc.ModelName,
			prompt,
			cc.MaxTokens,
			cc.Temperature,
			cc.MaxRetries,
			healthTimeout,
			f.logger,
		)
	default:
		return nil, fmt.Errorf("unsupported classifier backend: %s", cc.Backend)
	}
}
