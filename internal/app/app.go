// Package app wires configuration into a ready-to-run job runner. Both
// binaries build on it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/sheetscribe/internal/ai"
	"github.com/kiranshivaraju/sheetscribe/internal/cache"
	"github.com/kiranshivaraju/sheetscribe/internal/config"
	"github.com/kiranshivaraju/sheetscribe/internal/runner"
	"github.com/kiranshivaraju/sheetscribe/internal/store"
	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

// App holds the long-lived collaborators of a process.
type App struct {
	Config  *config.Config
	Backend models.GenerationBackend
	Store   store.JobStore
	// Cache is nil when REDIS_URL is not set.
	Cache  *cache.RedisCache
	Runner *runner.Runner

	closers []func()
}

// Build opens the job store, connects Redis when configured and assembles
// the runner. Call Close when done.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	backend, err := ai.NewBackend(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("create generation backend: %w", err)
	}
	slog.Info("generation backend initialized", "provider", backend.Name())

	st, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	slog.Info("job store opened", "backend", cfg.Store.Backend, "store_id", StoreID(st))

	a := &App{Config: cfg, Backend: backend, Store: st, closers: []func(){closeStore}}

	var opts []runner.Option
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create redis cache: %w", err)
		}
		a.closers = append(a.closers, func() { rc.Close() })

		if err := rc.Ping(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		slog.Info("redis connected")

		a.Cache = rc
		opts = append(opts, runner.WithClaimer(cache.NewRowClaimer(rc, StoreID(st), cfg.Redis.ClaimTTL)))
	} else {
		slog.Warn("REDIS_URL not set, rows are not claimed; concurrent runners may process the same row")
	}

	a.Runner = runner.NewFromBackend(st, backend, cfg, opts...)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Enqueuer returns the store as an Enqueuer when it supports appending rows.
func (a *App) Enqueuer() (store.Enqueuer, bool) {
	enq, ok := a.Store.(store.Enqueuer)
	return enq, ok
}

// StoreID names st for row claims.
func StoreID(st store.JobStore) string {
	if id, ok := st.(store.Identified); ok {
		return id.StoreID()
	}
	return "default"
}

// PassBudget is the longest a single pass can take: model discovery and every
// attempt timing out plus the waits between attempts, with a minute of slack
// for store calls.
func PassBudget(cfg *config.Config) time.Duration {
	attempts := cfg.Generation.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return time.Duration(attempts+1)*cfg.AI.Gemini.RequestTimeout +
		time.Duration(attempts-1)*cfg.Generation.RetryDelay +
		time.Minute
}
