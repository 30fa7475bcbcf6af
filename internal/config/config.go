package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/contract-spam-filter/")
	v.AddConfigPath("$HOME/.contract-spam-filter")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("CONTRACT_SPAM_FILTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// defaultPrompt instructs the model to answer with a bare verdict so the
// response can be parsed without a JSON round trip.
const defaultPrompt = `You are a blockchain contract spam detection system. Analyze the following NFT contract metadata and decide whether the contract is spam (phishing bait, fake airdrops, impersonation of a known collection, or other unwanted content).

Respond with exactly one word: "spam" or "not spam". Do not include any other text.`

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.listen_address", "0.0.0.0:8080")
	v.SetDefault("server.request_timeout", "30s")

	// Orchestrator defaults
	v.SetDefault("orchestrator.fanout_width", 8)
	v.SetDefault("orchestrator.provider_priority", []string{"moralis", "pinax"})

	// Moralis defaults
	v.SetDefault("moralis.enabled", true)
	v.SetDefault("moralis.base_url", "https://deep-index.moralis.io/api/v2")
	v.SetDefault("moralis.api_key", "")
	v.SetDefault("moralis.timeout", "10s")
	v.SetDefault("moralis.health_timeout", "5s")
	v.SetDefault("moralis.max_retries", 3)

	// Pinax defaults
	v.SetDefault("pinax.enabled", true)
	v.SetDefault("pinax.endpoint", "https://api.pinax.network/sql")
	v.SetDefault("pinax.api_user", "")
	v.SetDefault("pinax.api_auth", "")
	v.SetDefault("pinax.db_name", "")
	v.SetDefault("pinax.timeout", "10s")
	v.SetDefault("pinax.health_timeout", "5s")
	v.SetDefault("pinax.max_retries", 3)

	// Classifier defaults
	v.SetDefault("classifier.backend", "openai")
	v.SetDefault("classifier.prompt_version", "v1")
	v.SetDefault("classifier.prompts", map[string]string{"v1": defaultPrompt})
	v.SetDefault("classifier.max_tokens", 10)
	v.SetDefault("classifier.temperature", 0.0)
	v.SetDefault("classifier.max_retries", 3)
	v.SetDefault("classifier.health_timeout", "5s")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.capacity", 10000)
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/data/prediction_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/contract_spam_filter")

	// Provider metadata cache defaults
	v.SetDefault("provider_cache.enabled", true)
	v.SetDefault("provider_cache.ttl", "6h")
	v.SetDefault("provider_cache.capacity", 50000)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetStringMapString gets a string map value from the configuration
func (c *Config) GetStringMapString(key string) map[string]string {
	return c.v.GetStringMapString(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
