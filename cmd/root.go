package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abhisek/hallugen/internal/llm"
	"github.com/abhisek/hallugen/internal/pipeline"
	"github.com/abhisek/hallugen/internal/promptgen"
	"github.com/abhisek/hallugen/internal/responsegen"
	"github.com/abhisek/hallugen/internal/scoring"
	"github.com/abhisek/hallugen/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "hallugen",
	Short: "Generate prompt/response datasets with controlled hallucination",
	Long: "hallugen asks a hosted language model for prompts about a source text, then for answers\n" +
		"that deviate from the text by a requested percentage, and exports the pairs as JSON or CSV.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return setupLogging(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

// Execute runs the root command. An interrupt cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides HALLUGEN_DB env var)")
	pf.String("provider", "", "LLM provider: openai, openrouter, anthropic, gemini, mock")
	pf.String("model", "", "Model name from `hallugen models` (or any ID for openrouter)")
	pf.String("api-key", "", "API key for the selected provider")
	pf.String("log-level", "", "Log level: debug, info, warn, error (default from HALLUGEN_LOG_LEVEL, else info)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupLogging(cmd *cobra.Command) error {
	name, _ := cmd.Flags().GetString("log-level")
	if name == "" {
		name = os.Getenv(llm.EnvPrefix + "LOG_LEVEL")
	}
	level, err := parseLevel(name)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then HALLUGEN_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// llmConfig reads provider settings from the environment and applies the
// --provider, --model and --api-key overrides, in that order.
func llmConfig(cmd *cobra.Command) (llm.Config, error) {
	cfg, err := llm.DiscoverConfig()
	if err != nil {
		return llm.Config{}, err
	}
	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		cfg.Provider = strings.ToLower(p)
	}
	if m, _ := cmd.Flags().GetString("model"); m != "" {
		cfg.SetModel(m)
	}
	if k, _ := cmd.Flags().GetString("api-key"); k != "" {
		cfg.SetAPIKey(k)
	}
	return cfg, nil
}

// buildPipeline wires the provider, generators, scorer and run store.
func buildPipeline(cmd *cobra.Command, st *store.Store, pcfg pipeline.Config) (*pipeline.Pipeline, llm.Config, error) {
	cfg, err := llmConfig(cmd)
	if err != nil {
		return nil, llm.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, llm.Config{}, setupError(err)
	}
	provider, err := llm.NewProvider(cmd.Context(), cfg, st.EventRepo())
	if err != nil {
		return nil, llm.Config{}, setupError(err)
	}

	p := pipeline.New(pipeline.Deps{
		Prompts:   promptgen.New(provider, promptgen.DefaultConfig()),
		Responses: responsegen.New(provider, responsegen.DefaultConfig()),
		Scorer:    scoring.New(provider),
		Runs:      st.RunRepo(),
		Provider:  cfg.Provider,
		Model:     cfg.Model(),
	}, pcfg)
	return p, cfg, nil
}

// setupError explains how to supply a key when the provider cannot start.
func setupError(err error) error {
	return fmt.Errorf("LLM provider not configured: %w\n"+
		"Set OPENAI_API_KEY (or the key for --provider) in the environment or a .env file, "+
		"or pass --api-key", err)
}

// pipelineConfig reads HALLUGEN_WORKERS/HALLUGEN_SCORE and applies the
// --workers and --score flags when the command has them and they were set.
func pipelineConfig(cmd *cobra.Command) (pipeline.Config, error) {
	cfg, err := pipeline.ConfigFromEnv()
	if err != nil {
		return pipeline.Config{}, err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("score") {
		cfg.Score, _ = cmd.Flags().GetBool("score")
	}
	return cfg, nil
}
