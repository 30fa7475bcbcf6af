// Package chains holds the static registry of supported blockchain
// networks and their per-provider settings. The registry is pure data:
// it performs no I/O and is immutable after construction.
package chains

import (
	"fmt"
	"time"

	"github.com/mikey/contract-spam-filter/internal/core"
)

// ProviderSettings are the per-chain overrides for one provider.
type ProviderSettings struct {
	Enabled bool
	// Timeout overrides the provider's base request timeout when > 0.
	Timeout time.Duration
	// MaxRetries overrides the provider's base retry budget when > 0.
	MaxRetries int
	// Database is the Pinax database/namespace for this chain.
	Database string
	// BaseURL overrides the Moralis base URL for this chain.
	BaseURL string
}

// ChainConfig describes one supported chain.
type ChainConfig struct {
	ID        core.ChainID
	Name      string
	Enabled   bool
	Providers map[string]ProviderSettings
}

// EnabledProviders returns the names of providers enabled for this chain.
func (c ChainConfig) EnabledProviders() []string {
	names := make([]string, 0, len(c.Providers))
	for name, settings := range c.Providers {
		if settings.Enabled {
			names = append(names, name)
		}
	}
	return names
}

// Registry maps chain ids to their configuration. Read-only after New.
type Registry struct {
	chains map[core.ChainID]ChainConfig
}

// New builds a registry from the configured chains. Duplicate chain ids are
// rejected; the registry must be unambiguous.
func New(configs []ChainConfig) (*Registry, error) {
	chains := make(map[core.ChainID]ChainConfig, len(configs))
	for _, c := range configs {
		if _, ok := chains[c.ID]; ok {
			return nil, fmt.Errorf("duplicate chain id %d in registry", c.ID)
		}
		chains[c.ID] = c
	}
	return &Registry{chains: chains}, nil
}

// Resolve looks up a chain by id. The error distinguishes an unknown chain
// from one that is known but not yet enabled.
func (r *Registry) Resolve(id core.ChainID) (ChainConfig, error) {
	c, ok := r.chains[id]
	if !ok {
		return ChainConfig{}, core.NewRequestError("unsupported chain id %d", id)
	}
	if !c.Enabled {
		return ChainConfig{}, core.NewRequestError("chain %s (%d) is planned for future implementation", c.Name, id)
	}
	return c, nil
}

// ValidateRequest checks that a chain can serve a contract status request:
// it must exist, be enabled, and have at least one enabled provider.
func (r *Registry) ValidateRequest(id core.ChainID) (ChainConfig, error) {
	c, err := r.Resolve(id)
	if err != nil {
		return ChainConfig{}, err
	}
	if len(c.EnabledProviders()) == 0 {
		return ChainConfig{}, core.NewRequestError("chain %s (%d) has no enabled metadata providers", c.Name, id)
	}
	return c, nil
}

// EnabledProvidersFor implements core.ChainValidator.
func (r *Registry) EnabledProvidersFor(id core.ChainID) ([]string, error) {
	c, err := r.ValidateRequest(id)
	if err != nil {
		return nil, err
	}
	return c.EnabledProviders(), nil
}

// All returns every configured chain, enabled or not.
func (r *Registry) All() []ChainConfig {
	out := make([]ChainConfig, 0, len(r.chains))
	for _, c := range r.chains {
		out = append(out, c)
	}
	return out
}

// Defaults returns the chains supported out of the box. All have full
// Moralis and Pinax support.
func Defaults() []ChainConfig {
	mainnets := []struct {
		id   core.ChainID
		name string
		db   string
	}{
		{1, "Ethereum", "mainnet:evm-nft-tokens@v0.6.2"},
		{137, "Polygon", "polygon:evm-nft-tokens@v0.6.2"},
		{8453, "Base", "base:evm-nft-tokens@v0.6.2"},
		{42161, "Arbitrum", "arbitrum:evm-nft-tokens@v0.6.2"},
		{43114, "Avalanche", "avalanche:evm-nft-tokens@v0.6.2"},
	}
	out := make([]ChainConfig, 0, len(mainnets))
	for _, m := range mainnets {
		out = append(out, ChainConfig{
			ID:      m.id,
			Name:    m.name,
			Enabled: true,
			Providers: map[string]ProviderSettings{
				"moralis": {Enabled: true},
				"pinax":   {Enabled: true, Database: m.db},
			},
		})
	}
	return out
}
