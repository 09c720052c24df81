package llm

import (
	"math"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "anthropic without key",
			cfg:     Config{Provider: "anthropic", Anthropic: AnthropicConfig{Model: "claude-haiku"}},
			wantErr: true,
		},
		{
			name:    "anthropic with key",
			cfg:     Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test", Model: "claude-haiku"}},
			wantErr: false,
		},
		{
			name:    "openai without key",
			cfg:     Config{Provider: "openai", OpenAI: OpenAIConfig{Model: "gpt-4o"}},
			wantErr: true,
		},
		{
			name:    "openai with key",
			cfg:     Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o"}},
			wantErr: false,
		},
		{
			name:    "openai with model ID",
			cfg:     Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test", Model: "gpt-4.1-mini"}},
			wantErr: false,
		},
		{
			name:    "openai with unknown model",
			cfg:     Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test", Model: "gpt-2"}},
			wantErr: true,
		},
		{
			name:    "gemini resolved ID",
			cfg:     Config{Provider: "gemini", Gemini: GeminiConfig{APIKey: "k", Model: "gemini-2.0-flash"}},
			wantErr: false,
		},
		{
			name:    "openrouter accepts any model",
			cfg:     Config{Provider: "openrouter", OpenRouter: OpenRouterConfig{APIKey: "k", Model: "meta-llama/llama-3-8b"}},
			wantErr: false,
		},
		{
			name:    "mock needs no key",
			cfg:     Config{Provider: "mock"},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != "openai" {
		t.Fatalf("expected openai, got %q", cfg.Provider)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("expected gpt-4o-mini, got %q", cfg.OpenAI.Model)
	}
	if cfg.OpenRouter.BaseURL != defaultOpenRouterBaseURL {
		t.Fatalf("unexpected openrouter base URL %q", cfg.OpenRouter.BaseURL)
	}
	if cfg.OpenAI.APIKey != "" {
		t.Fatal("default config must not carry credentials")
	}
	if cfg.Timeout != time.Minute {
		t.Fatalf("expected 60s timeout, got %v", cfg.Timeout)
	}
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HALLUGEN_PROVIDER",
		"HALLUGEN_OPENAI_API_KEY", "OPENAI_API_KEY",
		"HALLUGEN_OPENROUTER_API_KEY", "OPENROUTER_API_KEY",
		"HALLUGEN_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY",
		"HALLUGEN_GEMINI_API_KEY", "GEMINI_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestDiscoverConfig_PrefixedVariables(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("HALLUGEN_PROVIDER", "anthropic")
	t.Setenv("HALLUGEN_ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("HALLUGEN_ANTHROPIC_MODEL", "claude-sonnet")

	cfg, err := DiscoverConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "anthropic" || cfg.Anthropic.APIKey != "sk-ant" || cfg.Model() != "claude-sonnet" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestDiscoverConfig_DiscoversVendorKey(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := DiscoverConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "gemini" {
		t.Fatalf("expected gemini, got %q", cfg.Provider)
	}
	if cfg.Gemini.APIKey != "g-key" {
		t.Fatalf("expected vendor key fallback, got %q", cfg.Gemini.APIKey)
	}
}

func TestDiscoverConfig_OpenAIFirst(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "o-key")

	cfg, err := DiscoverConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "openai" {
		t.Fatalf("expected openai, got %q", cfg.Provider)
	}
}

func TestConfig_SetModelAndKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "gemini"
	cfg.SetModel("gemini-pro")
	cfg.SetAPIKey("k")
	if cfg.Model() != "gemini-pro" || cfg.Gemini.APIKey != "k" {
		t.Fatalf("unexpected config: %+v", cfg.Gemini)
	}
	if cfg.OpenAI.APIKey != "" {
		t.Fatal("other providers must be untouched")
	}
}

func TestModels(t *testing.T) {
	models := Models()
	if len(models) == 0 {
		t.Fatal("expected a non-empty catalogue")
	}
	for i := 1; i < len(models); i++ {
		a, b := models[i-1], models[i]
		if a.Provider > b.Provider || (a.Provider == b.Provider && a.Name > b.Name) {
			t.Fatalf("catalogue not sorted at %d: %v before %v", i, a, b)
		}
	}
	if !IsKnownModel("anthropic", "claude-haiku") {
		t.Fatal("expected claude-haiku to be known")
	}
	if IsKnownModel("anthropic", "gpt-4o") {
		t.Fatal("gpt-4o is not an anthropic model")
	}
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4o-mini")
	if c == nil {
		t.Fatal("expected pricing for gpt-4o-mini")
	}
	if got := c.Cost(1_000_000, 1_000_000); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("expected 0.75, got %v", got)
	}
	if LookupCost("claude-haiku") == nil {
		t.Fatal("expected friendly names to resolve")
	}
	if LookupCost("no-such-model") != nil {
		t.Fatal("expected nil for unknown model")
	}
}
