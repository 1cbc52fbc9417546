package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/MikeSquared-Agency/intake/internal/api"
	"github.com/MikeSquared-Agency/intake/internal/config"
	"github.com/MikeSquared-Agency/intake/internal/extractor"
	"github.com/MikeSquared-Agency/intake/internal/gemini"
	"github.com/MikeSquared-Agency/intake/internal/hermes"
	"github.com/MikeSquared-Agency/intake/internal/metrics"
	"github.com/MikeSquared-Agency/intake/internal/processor"
	"github.com/MikeSquared-Agency/intake/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("intake starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	extractionMetrics := metrics.NewExtraction(reg)

	// Gemini backend
	if cfg.GeminiAPIKey == "" {
		slog.Error("GEMINI_API_KEY is required")
		os.Exit(1)
	}
	var gen extractor.Generator
	switch cfg.GeminiTransport {
	case "sdk":
		sdk, err := gemini.NewSDKClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			slog.Error("failed to create gemini sdk client", "error", err)
			os.Exit(1)
		}
		defer sdk.Close()
		gen = sdk
	case "rest":
		gen = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL)
	default:
		slog.Error("unknown GEMINI_TRANSPORT", "transport", cfg.GeminiTransport)
		os.Exit(1)
	}
	slog.Info("gemini backend ready", "transport", cfg.GeminiTransport, "models", cfg.GeminiModels)

	var limiter *rate.Limiter
	if cfg.GeminiRatePerSec > 0 {
		burst := cfg.GeminiBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.GeminiRatePerSec), burst)
	}

	// Extractor
	ext, err := extractor.New(gen, extractor.Config{
		Candidates: cfg.GeminiModels,
		Timeout:    cfg.ExtractionTimeout,
		Limiter:    limiter,
		Metrics:    extractionMetrics,
	}, slog.Default())
	if err != nil {
		slog.Error("failed to create extractor", "error", err)
		os.Exit(1)
	}

	// Database (optional: without it check-ins are extracted but not stored)
	var (
		visits processor.VisitStore
		deps   = api.Deps{Extractor: ext, Gatherer: reg, Logger: slog.Default()}
	)
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		visits = db
		deps.Visits = db
		deps.Appointments = db
		deps.Patients = db
		deps.Clinical = db
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set, visits will not be stored")
	}

	// NATS/Hermes (optional)
	var pub processor.Publisher
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		pub = hermesClient
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS_URL not set, check-in events will not be published")
	}

	// Processor: the check-in pipeline
	proc := processor.New(ext, visits, pub, slog.Default())
	deps.CheckIns = proc

	if hermesClient != nil {
		if err := hermesClient.Subscribe(hermes.SubjectCheckInTranscript, proc.TranscriptHandler(ctx)); err != nil {
			slog.Error("failed to subscribe to transcript submissions", "error", err)
			os.Exit(1)
		}
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, deps)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	slog.Info("intake ready", "port", cfg.Port, "candidates", ext.Candidates())

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")
	// Abandon in-flight bus check-ins; HTTP requests drain below.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown error", "error", err)
	}
	slog.Info("intake stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
