package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, "0.0.0.0:8080", cfg.GetServer().ListenAddress)
	assert.Equal(t, []string{"moralis", "pinax"}, cfg.GetOrchestrator().ProviderPriority)
	assert.Equal(t, 8, cfg.GetOrchestrator().FanOutWidth)

	mc := cfg.GetMoralis()
	assert.True(t, mc.Enabled)
	assert.Equal(t, "https://deep-index.moralis.io/api/v2", mc.BaseURL)
	assert.Equal(t, 3, mc.MaxRetries)

	cc := cfg.GetClassifier()
	assert.Equal(t, "openai", cc.Backend)
	assert.Equal(t, "v1", cc.PromptVersion)
	assert.Equal(t, 10, cc.MaxTokens)
	assert.Zero(t, cc.Temperature)

	cacheCfg := cfg.GetCache()
	assert.Equal(t, "memory", cacheCfg.Type)
	assert.True(t, cacheCfg.Enabled)
	assert.Equal(t, 10000, cacheCfg.Capacity)

	ttl, err := cfg.GetDuration("cache.ttl")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)
}

func TestClassifierPromptResolution(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	prompt, err := cfg.GetClassifier().Prompt()
	require.NoError(t, err)
	assert.Contains(t, prompt, `"spam" or "not spam"`)

	v := NewEmptyViper()
	v.Set("classifier.prompt_version", "v2")
	v.Set("classifier.prompts", map[string]string{"v2": "custom prompt"})
	prompt, err = NewFromViper(v).GetClassifier().Prompt()
	require.NoError(t, err)
	assert.Equal(t, "custom prompt", prompt)

	v = NewEmptyViper()
	v.Set("classifier.prompt_version", "v9")
	_, err = NewFromViper(v).GetClassifier().Prompt()
	require.Error(t, err)
}

func TestGetChains(t *testing.T) {
	t.Run("unset means defaults", func(t *testing.T) {
		cfg := NewFromViper(NewEmptyViper())
		entries, err := cfg.GetChains()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("parses entries", func(t *testing.T) {
		v := NewEmptyViper()
		v.Set("chains", []map[string]interface{}{
			{
				"id":      uint64(1),
				"name":    "Ethereum",
				"enabled": true,
				"pinax":   map[string]interface{}{"database": "mainnet:evm-nft-tokens@v0.6.2"},
				"moralis": map[string]interface{}{"enabled": false, "timeout": "5s"},
			},
		})

		entries, err := NewFromViper(v).GetChains()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, uint64(1), entries[0].ID)
		assert.Equal(t, "mainnet:evm-nft-tokens@v0.6.2", entries[0].Pinax.Database)
		require.NotNil(t, entries[0].Moralis.Enabled)
		assert.False(t, *entries[0].Moralis.Enabled)
		assert.Equal(t, "5s", entries[0].Moralis.Timeout)
	})
}
