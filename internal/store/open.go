package store

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/sheetscribe/internal/config"
)

// Open constructs the job store selected by cfg.Store.Backend. The returned
// close function releases any held connections and is never nil.
func Open(ctx context.Context, cfg *config.Config) (JobStore, func(), error) {
	switch cfg.Store.Backend {
	case "sheets":
		s, err := OpenSheets(ctx, cfg.Store)
		if err != nil {
			return nil, func() {}, err
		}
		return s, func() {}, nil
	case "postgres":
		pool, err := Connect(ctx, cfg.Database)
		if err != nil {
			return nil, func() {}, err
		}
		if err := RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
			pool.Close()
			return nil, func() {}, fmt.Errorf("run migrations: %w", err)
		}
		return NewPostgresStore(pool), pool.Close, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown store backend %q: must be one of sheets, postgres", cfg.Store.Backend)
	}
}
