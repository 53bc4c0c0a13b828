package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/warden/internal/api"
	"github.com/MikeSquared-Agency/warden/internal/collector"
	"github.com/MikeSquared-Agency/warden/internal/config"
	"github.com/MikeSquared-Agency/warden/internal/engine"
	"github.com/MikeSquared-Agency/warden/internal/hermes"
	"github.com/MikeSquared-Agency/warden/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("warden starting", "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scoring configuration — weights, thresholds, budget ceiling.
	scoring, err := config.LoadScoring(cfg.ScoringPath)
	if err != nil {
		slog.Error("invalid scoring config", "path", cfg.ScoringPath, "error", err)
		os.Exit(1)
	}
	if err := scoring.Weights.Validate(); err != nil {
		slog.Error("invalid weights", "error", err)
		os.Exit(1)
	}
	slog.Info("scoring config loaded",
		"healthy_threshold", scoring.Thresholds.Healthy,
		"degraded_threshold", scoring.Thresholds.Degraded,
		"budget_ceiling", scoring.BudgetCeiling,
	)

	// Database — the pipeline's signal tables are the collector source.
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// NATS/Hermes
	hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer hermesClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Collector guard — short timeout, last-known-good fallback.
	source := collector.NewGuarded(db, time.Duration(cfg.CollectorTimeoutMS)*time.Millisecond, slog.Default())

	eng := engine.New(source, scoring.Weights, scoring.Thresholds, scoring.BudgetCeiling, engine.Options{
		Bus:     hermesClient,
		Audit:   db,
		Tenants: db,
	}, slog.Default())

	// Re-evaluate on pipeline refresh events instead of waiting for the
	// next cadence tick.
	if err := hermesClient.Subscribe(hermes.SubjectComponentUpdated, eng.HandleComponentUpdate); err != nil {
		slog.Error("failed to subscribe to component updates", "error", err)
		os.Exit(1)
	}

	srv := api.NewServer(cfg.Port, cfg.APIToken, eng)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		eng.Run(ctx, time.Duration(cfg.EvalIntervalSecs)*time.Second)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	slog.Info("warden ready", "port", cfg.Port, "eval_interval_s", cfg.EvalIntervalSecs)

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("warden exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("warden stopped")
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
