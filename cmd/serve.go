package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/hallugen/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generation API over HTTP",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", ":8080", "Listen address")
	f.StringSlice("allow-origin", nil, "CORS allowed origin (repeatable; default allows all)")
	f.Int("workers", 4, "Concurrent response requests per run")
	f.Bool("score", false, "Measure hallucination when a request does not say")
}

func runServe(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	pcfg, err := pipelineConfig(cmd)
	if err != nil {
		return err
	}
	p, cfg, err := buildPipeline(cmd, st, pcfg)
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	origins, _ := cmd.Flags().GetStringSlice("allow-origin")
	srv := server.New(server.Config{
		Addr:           addr,
		Logger:         slog.Default(),
		AllowedOrigins: origins,
	}, p, st.RunRepo())

	slog.Info("using LLM", "provider", cfg.Provider, "model", cfg.Model())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
