// Package main is the single-pass entrypoint: process at most one unprocessed
// row and exit. Meant to be run from cron or a scheduler.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/sheetscribe/internal/app"
	"github.com/kiranshivaraju/sheetscribe/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	enqueue := flag.String("enqueue", "", "append a row with this topic and the unprocessed marker, then exit")
	flag.Parse()

	if err := run(os.Stdout, *enqueue); err != nil {
		slog.Error("runner failed", "error", err)
		os.Exit(1)
	}
}

func run(out io.Writer, enqueueTopic string) error {
	// Config errors (a missing API key included) are fatal before any store access.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.Log.Level}))
	slog.SetDefault(logger)
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "store_backend", cfg.Store.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if enqueueTopic != "" {
		return enqueue(ctx, a, enqueueTopic)
	}

	report, err := a.Runner.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("run %s: %w", report.RunID, err)
	}

	attrs := []any{
		"run_id", report.RunID,
		"outcome", report.Outcome,
		"duration_ms", report.CompletedAt.Sub(report.StartedAt).Milliseconds(),
	}
	if report.Job != nil {
		attrs = append(attrs, "row", report.Job.Row)
	}
	if report.Model != "" {
		attrs = append(attrs, "model", report.Model, "attempts", report.Attempts)
	}
	if report.Error != "" {
		attrs = append(attrs, "error", report.Error)
	}
	slog.Info("run finished", attrs...)
	return nil
}

func enqueue(ctx context.Context, a *app.App, topic string) error {
	enq, ok := a.Enqueuer()
	if !ok {
		return fmt.Errorf("store backend %q cannot append rows", a.Config.Store.Backend)
	}
	row, err := enq.AppendRow(ctx, topic, a.Config.Markers.Unprocessed)
	if err != nil {
		return fmt.Errorf("enqueue topic: %w", err)
	}
	slog.Info("topic enqueued", "row", row, "topic", topic)
	return nil
}
