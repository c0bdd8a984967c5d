package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/des-work/Arcano-Desk-sub000/internal/api"
	"github.com/des-work/Arcano-Desk-sub000/internal/config"
	"github.com/des-work/Arcano-Desk-sub000/internal/document"
	"github.com/des-work/Arcano-Desk-sub000/internal/gateway"
	"github.com/des-work/Arcano-Desk-sub000/internal/metrics"
	"github.com/des-work/Arcano-Desk-sub000/internal/synthesis"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize components.
	docs := document.NewStore()
	gw := gateway.NewClient(cfg.OllamaURL, cfg.ResponseCacheTTL, cfg.ResponseCacheSize, log)
	synth := synthesis.NewSynthesizer(gw, cfg.ResultCacheSize, log)

	orch := synthesis.NewOrchestrator(synthesis.OrchestratorConfig{
		WorkerCount:  cfg.WorkerCount,
		MaxQueueSize: cfg.MaxQueueSize,
		JobTTL:       cfg.JobTTL,
	}, synth, docs, gw, log)
	orch.Start(ctx)

	// Probe the inference service in the background; the service is fully
	// usable in fallback mode while disconnected.
	go func() {
		if !gw.ConnectWithRetry(ctx, gateway.MaxConnectAttempts) {
			log.Warn("starting in fallback mode; inference service unavailable", "url", cfg.OllamaURL)
		}
	}()

	// Initialize HTTP server.
	srv := api.NewServer(orch, gw, docs, log, cfg)

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

		gw.Close()
	}()

	log.Info("starting study guide service", "port", cfg.Port, "ollama_url", cfg.OllamaURL)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
