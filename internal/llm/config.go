package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
)

// EnvPrefix is prepended to every variable read by DiscoverConfig.
const EnvPrefix = "HALLUGEN_"

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "openai", "openrouter", "anthropic", "gemini", "mock"
	Provider string `env:"PROVIDER"`

	// Timeout bounds each completion request. Zero disables it.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`

	OpenAI     OpenAIConfig     `envPrefix:"OPENAI_"`
	OpenRouter OpenRouterConfig `envPrefix:"OPENROUTER_"`
	Anthropic  AnthropicConfig  `envPrefix:"ANTHROPIC_"`
	Gemini     GeminiConfig     `envPrefix:"GEMINI_"`
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"gpt-4o-mini"`
	BaseURL string `env:"BASE_URL"` // Optional. Override for compatible APIs.
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"openai/gpt-4o-mini"`
	BaseURL string `env:"BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `env:"API_KEY"`
	Model  string `env:"MODEL" envDefault:"claude-haiku"`
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `env:"API_KEY"`
	Model  string `env:"MODEL" envDefault:"gemini-flash"`
}

// DefaultConfig returns a Config with every default applied and no
// credentials. The provider is OpenAI.
func DefaultConfig() Config {
	var cfg Config
	// An empty environment only applies envDefault tags; it cannot fail.
	_ = env.ParseWithOptions(&cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: map[string]string{},
	})
	cfg.Provider = "openai"
	return cfg
}

// DiscoverConfig builds a Config from HALLUGEN_* environment variables.
// Unset API keys fall back to the vendor's own variable (OPENAI_API_KEY and
// friends). When HALLUGEN_PROVIDER is unset the provider is discovered from
// whichever key is present.
func DiscoverConfig() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.OpenRouter.APIKey == "" {
		cfg.OpenRouter.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if cfg.Anthropic.APIKey == "" {
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if cfg.Provider == "" {
		cfg.Provider = discoverProvider(cfg)
	}
	return cfg, nil
}

// discoverProvider picks the first provider with a key, OpenAI first since
// that has always been the default service. Falls back to "openai" so that
// Validate reports the missing key.
func discoverProvider(cfg Config) string {
	switch {
	case cfg.OpenAI.APIKey != "":
		return "openai"
	case cfg.Gemini.APIKey != "":
		return "gemini"
	case cfg.Anthropic.APIKey != "":
		return "anthropic"
	case cfg.OpenRouter.APIKey != "":
		return "openrouter"
	}
	return "openai"
}

// Model returns the model configured for the selected provider.
func (c Config) Model() string {
	switch c.Provider {
	case "openai":
		return c.OpenAI.Model
	case "openrouter":
		return c.OpenRouter.Model
	case "anthropic":
		return c.Anthropic.Model
	case "gemini":
		return c.Gemini.Model
	case "mock":
		return "mock"
	}
	return ""
}

// SetModel overrides the model of the selected provider.
func (c *Config) SetModel(model string) {
	switch c.Provider {
	case "openai":
		c.OpenAI.Model = model
	case "openrouter":
		c.OpenRouter.Model = model
	case "anthropic":
		c.Anthropic.Model = model
	case "gemini":
		c.Gemini.Model = model
	}
}

// SetAPIKey overrides the credential of the selected provider.
func (c *Config) SetAPIKey(key string) {
	switch c.Provider {
	case "openai":
		c.OpenAI.APIKey = key
	case "openrouter":
		c.OpenRouter.APIKey = key
	case "anthropic":
		c.Anthropic.APIKey = key
	case "gemini":
		c.Gemini.APIKey = key
	}
}

// Validate checks that the selected provider has its API key set and that
// the model is one the catalogue knows about.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY (or HALLUGEN_OPENAI_API_KEY) is required for the openai provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY (or HALLUGEN_OPENROUTER_API_KEY) is required for the openrouter provider")
		}
		// OpenRouter proxies arbitrary upstream models.
		return nil
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY (or HALLUGEN_ANTHROPIC_API_KEY) is required for the anthropic provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY (or HALLUGEN_GEMINI_API_KEY) is required for the gemini provider")
		}
	case "mock":
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}

	if !IsKnownModel(c.Provider, c.Model()) {
		return fmt.Errorf("model %q is not available for provider %s (see `hallugen models`)", c.Model(), c.Provider)
	}
	return nil
}
