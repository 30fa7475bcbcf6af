package config

import "fmt"

// ServerConfig represents the configuration for the HTTP server
type ServerConfig struct {
	ListenAddress  string
	RequestTimeout string
}

// OrchestratorConfig represents the configuration for request fan-out
type OrchestratorConfig struct {
	FanOutWidth      int
	ProviderPriority []string
}

// MoralisConfig represents the configuration for the Moralis provider
type MoralisConfig struct {
	Enabled       bool
	BaseURL       string
	APIKey        string
	Timeout       string
	HealthTimeout string
	MaxRetries    int
}

// PinaxConfig represents the configuration for the Pinax provider
type PinaxConfig struct {
	Enabled       bool
	Endpoint      string
	APIUser       string
	APIAuth       string
	DBName        string
	Timeout       string
	HealthTimeout string
	MaxRetries    int
}

// ClassifierConfig represents the backend-independent classifier settings
type ClassifierConfig struct {
	Backend       string
	PromptVersion string
	Prompts       map[string]string
	MaxTokens     int
	Temperature   float32
	MaxRetries    int
	HealthTimeout string
}

// Prompt resolves the system prompt for the configured version
func (c ClassifierConfig) Prompt() (string, error) {
	p, ok := c.Prompts[c.PromptVersion]
	if !ok || p == "" {
		return "", fmt.Errorf("no prompt configured for version %q", c.PromptVersion)
	}
	return p, nil
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region  string
	ModelID string
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey    string
	ModelName string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	ModelName string
}

// CacheConfig represents the configuration for the prediction cache
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              string
	Capacity         int
	CleanupFrequency string
	SqlitePath       string
	MySQLDSN         string
}

// ProviderCacheConfig represents the configuration for the provider
// metadata cache
type ProviderCacheConfig struct {
	Enabled  bool
	TTL      string
	Capacity int
}

// ChainProviderEntry represents per-chain provider overrides
type ChainProviderEntry struct {
	Enabled    *bool  `mapstructure:"enabled"`
	Timeout    string `mapstructure:"timeout"`
	MaxRetries int    `mapstructure:"max_retries"`
	Database   string `mapstructure:"database"`
	BaseURL    string `mapstructure:"base_url"`
}

// ChainEntry represents one chain in the registry configuration
type ChainEntry struct {
	ID      uint64             `mapstructure:"id"`
	Name    string             `mapstructure:"name"`
	Enabled bool               `mapstructure:"enabled"`
	Moralis ChainProviderEntry `mapstructure:"moralis"`
	Pinax   ChainProviderEntry `mapstructure:"pinax"`
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress:  c.GetString("server.listen_address"),
		RequestTimeout: c.GetString("server.request_timeout"),
	}
}

// GetOrchestrator returns the fan-out configuration
func (c *Config) GetOrchestrator() OrchestratorConfig {
	return OrchestratorConfig{
		FanOutWidth:      c.GetInt("orchestrator.fanout_width"),
		ProviderPriority: c.GetStringSlice("orchestrator.provider_priority"),
	}
}

// GetMoralis returns the Moralis provider configuration
func (c *Config) GetMoralis() MoralisConfig {
	return MoralisConfig{
		Enabled:       c.GetBool("moralis.enabled"),
		BaseURL:       c.GetString("moralis.base_url"),
		APIKey:        c.GetString("moralis.api_key"),
		Timeout:       c.GetString("moralis.timeout"),
		HealthTimeout: c.GetString("moralis.health_timeout"),
		MaxRetries:    c.GetInt("moralis.max_retries"),
	}
}

// GetPinax returns the Pinax provider configuration
func (c *Config) GetPinax() PinaxConfig {
	return PinaxConfig{
		Enabled:       c.GetBool("pinax.enabled"),
		Endpoint:      c.GetString("pinax.endpoint"),
		APIUser:       c.GetString("pinax.api_user"),
		APIAuth:       c.GetString("pinax.api_auth"),
		DBName:        c.GetString("pinax.db_name"),
		Timeout:       c.GetString("pinax.timeout"),
		HealthTimeout: c.GetString("pinax.health_timeout"),
		MaxRetries:    c.GetInt("pinax.max_retries"),
	}
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Backend:       c.GetString("classifier.backend"),
		PromptVersion: c.GetString("classifier.prompt_version"),
		Prompts:       c.GetStringMapString("classifier.prompts"),
		MaxTokens:     c.GetInt("classifier.max_tokens"),
		Temperature:   float32(c.GetFloat64("classifier.temperature")),
		MaxRetries:    c.GetInt("classifier.max_retries"),
		HealthTimeout: c.GetString("classifier.health_timeout"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:  c.GetString("bedrock.region"),
		ModelID: c.GetString("bedrock.model_id"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:    c.GetString("gemini.api_key"),
		ModelName: c.GetString("gemini.model_name"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:    c.GetString("openai.api_key"),
		BaseURL:   c.GetString("openai.base_url"),
		ModelName: c.GetString("openai.model_name"),
	}
}

// GetCache returns the prediction cache configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              c.GetString("cache.ttl"),
		Capacity:         c.GetInt("cache.capacity"),
		CleanupFrequency: c.GetString("cache.cleanup_frequency"),
		SqlitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}
}

// GetProviderCache returns the provider metadata cache configuration
func (c *Config) GetProviderCache() ProviderCacheConfig {
	return ProviderCacheConfig{
		Enabled:  c.GetBool("provider_cache.enabled"),
		TTL:      c.GetString("provider_cache.ttl"),
		Capacity: c.GetInt("provider_cache.capacity"),
	}
}

// GetChains returns the chain registry configuration. An empty slice means
// the built-in defaults should be used.
func (c *Config) GetChains() ([]ChainEntry, error) {
	if !c.v.IsSet("chains") {
		return nil, nil
	}
	var entries []ChainEntry
	if err := c.v.UnmarshalKey("chains", &entries); err != nil {
		return nil, fmt.Errorf("failed to parse chains configuration: %w", err)
	}
	return entries, nil
}
