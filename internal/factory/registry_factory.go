package factory

import (
	"fmt"
	"time"

	"github.com/mikey/contract-spam-filter/internal/chains"
	"github.com/mikey/contract-spam-filter/internal/config"
	"github.com/mikey/contract-spam-filter/internal/core"
)

// RegistryFactory builds the chain registry from configuration
type RegistryFactory struct {
	cfg *config.Config
}

// NewRegistryFactory creates a new registry factory
func NewRegistryFactory(cfg *config.Config) *RegistryFactory {
	return &RegistryFactory{cfg: cfg}
}

// CreateRegistry builds the chain registry. Without a chains section in the
// configuration the built-in mainnet defaults are used.
func (f *RegistryFactory) CreateRegistry() (*chains.Registry, error) {
	entries, err := f.cfg.GetChains()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return chains.New(chains.Defaults())
	}

	configs := make([]chains.ChainConfig, 0, len(entries))
	for _, e := range entries {
		moralis, err := providerSettings(e.Moralis)
		if err != nil {
			return nil, fmt.Errorf("chain %d moralis settings: %w", e.ID, err)
		}
		pinax, err := providerSettings(e.Pinax)
		if err != nil {
			return nil, fmt.Errorf("chain %d pinax settings: %w", e.ID, err)
		}
		configs = append(configs, chains.ChainConfig{
			ID:      core.ChainID(e.ID),
			Name:    e.Name,
			Enabled: e.Enabled,
			Providers: map[string]chains.ProviderSettings{
				"moralis": moralis,
				"pinax":   pinax,
			},
		})
	}
	return chains.New(configs)
}

func providerSettings(e config.ChainProviderEntry) (chains.ProviderSettings, error) {
	// A provider omitted from a chain entry defaults to enabled; overrides
	// stay zero unless set.
	enabled := true
	if e.Enabled != nil {
		enabled = *e.Enabled
	}
	var timeout time.Duration
	if e.Timeout != "" {
		var err error
		timeout, err = time.ParseDuration(e.Timeout)
		if err != nil {
			return chains.ProviderSettings{}, fmt.Errorf("invalid timeout %q: %w", e.Timeout, err)
		}
	}
	return chains.ProviderSettings{
		Enabled:    enabled,
		Timeout:    timeout,
		MaxRetries: e.MaxRetries,
		Database:   e.Database,
		BaseURL:    e.BaseURL,
	}, nil
}
