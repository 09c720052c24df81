package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/hallugen/internal/pipeline"
	"github.com/abhisek/hallugen/internal/tui"
)

func init() {
	f := rootCmd.Flags()
	f.String("out-dir", ".", "Directory that receives generated_responses.json and .csv")
	f.Int("count", pipeline.DefaultCount, "Initial number of prompts")
	f.Int("hallucination", pipeline.DefaultTarget, "Initial hallucination percentage")
	f.Bool("score", false, "Measure hallucination of every response")
	f.Int("workers", 4, "Concurrent response requests")
}

// runTUI opens the store, builds the pipeline, and launches the TUI. Logs
// go to hallugen.log next to the database so they do not draw over the UI.
func runTUI(cmd *cobra.Command) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	dbPath, _ := resolveDBPath(cmd)
	logPath := filepath.Join(filepath.Dir(dbPath), "hallugen.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	level, _ := parseLevel(os.Getenv("HALLUGEN_LOG_LEVEL"))
	if name, _ := cmd.Flags().GetString("log-level"); name != "" {
		level, _ = parseLevel(name)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level})))

	pcfg, err := pipelineConfig(cmd)
	if err != nil {
		return err
	}
	p, cfg, err := buildPipeline(cmd, st, pcfg)
	if err != nil {
		return err
	}

	outDir, _ := cmd.Flags().GetString("out-dir")
	count, _ := cmd.Flags().GetInt("count")
	target, _ := cmd.Flags().GetInt("hallucination")

	return tui.Run(tui.Options{
		Runner: p,
		OutDir: outDir,
		Status: fmt.Sprintf("%s · %s", cfg.Provider, cfg.Model()),
		Count:  count,
		Target: target,
		Score:  pcfg.Score,
	})
}
