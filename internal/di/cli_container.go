package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/config"
	"github.com/mikey/contract-spam-filter/internal/logging"
)

// CLIFlags contains all command line flags for the scanner application
type CLIFlags struct {
	// Request flags
	ChainID uint64

	// Provider flags
	MoralisAPIKey string
	PinaxUser     string
	PinaxAuth     string

	// Classifier flags
	Backend        string
	OpenAIAPIKey   string
	OpenAIModel    string
	GeminiAPIKey   string
	GeminiModel    string
	BedrockRegion  string
	BedrockModelID string

	// Input flags
	Verbose    bool
	JSONLog    bool
	ConfigFile string

	// Addresses are the positional arguments
	Addresses []string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	flag.Uint64Var(&flags.ChainID, "chain", 1, "Chain id to query (1, 137, 8453, 42161, 43114)")

	flag.StringVar(&flags.MoralisAPIKey, "moralis-api-key", "", "API key for Moralis")
	flag.StringVar(&flags.PinaxUser, "pinax-user", "", "Basic auth user for Pinax")
	flag.StringVar(&flags.PinaxAuth, "pinax-auth", "", "Basic auth secret for Pinax")

	flag.StringVar(&flags.Backend, "backend", "openai", "Classifier backend (openai, bedrock, gemini)")
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModel, "openai-model", "gpt-4o-mini", "OpenAI model name")
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModel, "gemini-model", "gemini-1.5-flash", "Gemini model name")
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-3-haiku-20240307-v1:0", "Bedrock model ID")

	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	flags.Addresses = flag.Args()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container
// for the one-shot scanner. It shares every provider registration with the
// server container but swaps in a console logger and flag-derived config.
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container, err := BuildContainer()
	if err != nil {
		return nil, err
	}

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Replace logger with a console-friendly one
	if err := container.Decorate(func(_ *zap.Logger, flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Replace configuration with one derived from flags unless a config file
	// was requested
	if err := container.Decorate(func(cfg *config.Config, flags *CLIFlags) (*config.Config, error) {
		if flags.ConfigFile != "" {
			return cfg, nil
		}
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("moralis.api_key", flags.MoralisAPIKey)
	v.Set("moralis.enabled", flags.MoralisAPIKey != "")
	v.Set("pinax.api_user", flags.PinaxUser)
	v.Set("pinax.api_auth", flags.PinaxAuth)
	v.Set("pinax.enabled", flags.PinaxUser != "")

	v.Set("classifier.backend", flags.Backend)
	switch flags.Backend {
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModel)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModel)
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
	}

	// One-shot runs have nothing to cache across invocations
	v.Set("cache.enabled", false)
	v.Set("provider_cache.enabled", false)

	return config.NewFromViper(v)
}
