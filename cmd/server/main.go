// Package main is the entrypoint for the sheetscribe trigger server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/sheetscribe/internal/api"
	"github.com/kiranshivaraju/sheetscribe/internal/api/handler"
	mw "github.com/kiranshivaraju/sheetscribe/internal/api/middleware"
	"github.com/kiranshivaraju/sheetscribe/internal/app"
	"github.com/kiranshivaraju/sheetscribe/internal/cache"
	"github.com/kiranshivaraju/sheetscribe/internal/config"
	"github.com/kiranshivaraju/sheetscribe/internal/runner"
	"github.com/kiranshivaraju/sheetscribe/internal/store"
	"github.com/robfig/cron/v3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.Level})))
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "store_backend", cfg.Store.Backend, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open store, Redis and build the runner
	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// 3. Dispatcher serializes HTTP and scheduled passes
	var reports *cache.ReportStore
	if a.Cache != nil {
		reports = cache.NewReportStore(a.Cache, cfg.Redis.ReportTTL)
	}
	dispatcher := runner.NewDispatcher(a.Runner, saverOrNil(reports))

	// 4. Optional schedule
	if cfg.Server.RunSchedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.Server.RunSchedule, scheduledPass(ctx, dispatcher)); err != nil {
			return fmt.Errorf("parse RUN_SCHEDULE: %w", err)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		slog.Info("run schedule active", "schedule", cfg.Server.RunSchedule)
	}

	// 5. Build router with dependencies
	router := api.NewRouter(buildDependencies(ctx, cfg, a, dispatcher, reports))

	// 6. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: app.PassBudget(cfg),
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

func buildDependencies(ctx context.Context, cfg *config.Config, a *app.App, d *runner.Dispatcher, reports *cache.ReportStore) api.Dependencies {
	deps := api.Dependencies{
		Auth:           mw.NewAuth(cfg.Server.TriggerTokenHash),
		HealthHandler:  handler.NewHealthHandler(healthChecks(a.Store, a.Cache)),
		TriggerHandler: handler.NewTriggerRunHandler(d, ctx, app.PassBudget(cfg)),
	}

	if reports != nil {
		deps.RateLimit = mw.NewRateLimit(a.Cache, cfg.Server.RequestsPerMin)
		deps.LastRunHandler = handler.NewLastRunHandler(d, reports)
		deps.GetRunHandler = handler.NewGetRunHandler(reports)
	} else {
		deps.LastRunHandler = handler.NewLastRunHandler(d, nil)
	}

	if enq, ok := a.Enqueuer(); ok {
		deps.EnqueueHandler = handler.NewEnqueueHandler(enq, cfg.Markers.Unprocessed)
	}
	return deps
}

// healthChecks lists the dependencies worth pinging. c may be nil.
func healthChecks(st store.JobStore, c *cache.RedisCache) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{}
	if p, ok := st.(store.Pinger); ok {
		checks["store"] = p
	}
	if c != nil {
		checks["cache"] = c
	}
	return checks
}

// scheduledPass returns the cron job. Overlapping ticks are skipped.
func scheduledPass(ctx context.Context, d *runner.Dispatcher) func() {
	return func() {
		report, err := d.Trigger(ctx)
		switch {
		case errors.Is(err, runner.ErrBusy):
			slog.Info("scheduled run skipped, previous run still in progress")
		case err != nil:
			slog.Error("scheduled run failed", "error", err)
		default:
			slog.Info("scheduled run finished", "run_id", report.RunID, "outcome", report.Outcome)
		}
	}
}

// saverOrNil keeps a nil *ReportStore from becoming a non-nil interface.
func saverOrNil(r *cache.ReportStore) runner.ReportSaver {
	if r == nil {
		return nil
	}
	return r
}
