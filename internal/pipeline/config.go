package pipeline

import (
	"fmt"

	"github.com/caarlos0/env/v10"

	"github.com/abhisek/hallugen/internal/llm"
)

// Starting values for a new run.
const (
	DefaultCount  = 10
	DefaultTarget = 10
)

// Config controls the behavior of the Pipeline.
type Config struct {
	// Workers bounds concurrent response requests.
	Workers int `env:"WORKERS" envDefault:"4"`

	// Score runs the hallucination scorer on every response.
	Score bool `env:"SCORE"`
}

// DefaultConfig returns the recommended defaults.
func DefaultConfig() Config {
	return Config{Workers: 4}
}

// ConfigFromEnv reads HALLUGEN_WORKERS and HALLUGEN_SCORE.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: llm.EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func (c Config) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}
