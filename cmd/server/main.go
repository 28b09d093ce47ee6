package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contratoclaro/contratoclaro/internal/analysis"
	"github.com/contratoclaro/contratoclaro/internal/api"
	"github.com/contratoclaro/contratoclaro/internal/config"
	"github.com/contratoclaro/contratoclaro/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize LLM client.
	provider := analysis.ProviderConfig{
		Name:    cfg.LLMProvider,
		Model:   cfg.LLMModel,
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
	}
	stats := analysis.NewLLMStats(time.Hour)
	llm := analysis.NewClient(provider, cfg.LLMTimeout, stats)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, llm, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, provider, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		llm.Close()
	}()

	log.Info("starting contratoclaro", "port", cfg.Port, "provider", cfg.LLMProvider, "model", cfg.LLMModel)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
