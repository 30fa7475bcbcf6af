package factory

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/adapters/moralis"
	"github.com/mikey/contract-spam-filter/internal/adapters/pinax"
	"github.com/mikey/contract-spam-filter/internal/chains"
	"github.com/mikey/contract-spam-filter/internal/config"
	"github.com/mikey/contract-spam-filter/internal/core"
)

// ProviderFactory creates metadata provider clients from configuration plus
// the per-chain overrides held in the registry.
type ProviderFactory struct {
	cfg      *config.Config
	registry *chains.Registry
	logger   *zap.Logger
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config, registry *chains.Registry, logger *zap.Logger) *ProviderFactory {
	return &ProviderFactory{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
	}
}

// CreateProviders builds every globally enabled provider, keyed by name.
func (f *ProviderFactory) CreateProviders() (map[string]core.MetadataProvider, error) {
	providers := make(map[string]core.MetadataProvider)

	if mc := f.cfg.GetMoralis(); mc.Enabled {
		client, err := f.createMoralis(mc)
		if err != nil {
			return nil, err
		}
		providers[moralis.ProviderName] = client
	}
	if pc := f.cfg.GetPinax(); pc.Enabled {
		client, err := f.createPinax(pc)
		if err != nil {
			return nil, err
		}
		providers[pinax.ProviderName] = client
	}
	return providers, nil
}

func (f *ProviderFactory) createMoralis(mc config.MoralisConfig) (*moralis.Client, error) {
	timeout, err := time.ParseDuration(mc.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid moralis timeout: %w", err)
	}
	healthTimeout, err := time.ParseDuration(mc.HealthTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid moralis health timeout: %w", err)
	}

	overrides := make(map[core.ChainID]moralis.ChainOverride)
	for _, chain := range f.registry.All() {
		s, ok := chain.Providers[moralis.ProviderName]
		if !ok {
			continue
		}
		if s.BaseURL != "" || s.Timeout > 0 || s.MaxRetries > 0 {
			overrides[chain.ID] = moralis.ChainOverride{
				BaseURL:    s.BaseURL,
				Timeout:    s.Timeout,
				MaxRetries: s.MaxRetries,
			}
		}
	}

	return moralis.NewClient(moralis.Config{
		BaseURL:       mc.BaseURL,
		APIKey:        mc.APIKey,
		Timeout:       timeout,
		HealthTimeout: healthTimeout,
		MaxRetries:    mc.MaxRetries,
	}, overrides, f.logger)
}

func (f *ProviderFactory) createPinax(pc config.PinaxConfig) (*pinax.Client, error) {
	timeout, err := time.ParseDuration(pc.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid pinax timeout: %w", err)
	}
	healthTimeout, err := time.ParseDuration(pc.HealthTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid pinax health timeout: %w", err)
	}

	overrides := make(map[core.ChainID]pinax.ChainOverride)
	for _, chain := range f.registry.All() {
		s, ok := chain.Providers[pinax.ProviderName]
		if !ok {
			continue
		}
		if s.Database != "" || s.Timeout > 0 || s.MaxRetries > 0 {
			overrides[chain.ID] = pinax.ChainOverride{
				Database:   s.Database,
				Timeout:    s.Timeout,
				MaxRetries: s.MaxRetries,
			}
		}
	}

	return pinax.NewClient(pinax.Config{
		Endpoint:      pc.Endpoint,
		APIUser:       pc.APIUser,
		APIAuth:       pc.APIAuth,
		Database:      pc.DBName,
		Timeout:       timeout,
		HealthTimeout: healthTimeout,
		MaxRetries:    pc.MaxRetries,
	}, overrides, f.logger)
}
