package cache

import (
	"context"
	"time"
)

// RowClaimer locks rows of one job store so concurrent runners never pick up
// the same row.
type RowClaimer struct {
	cache   Cache
	storeID string
	ttl     time.Duration
}

// NewRowClaimer scopes claims to storeID (spreadsheet ID or database name).
func NewRowClaimer(c Cache, storeID string, ttl time.Duration) *RowClaimer {
	return &RowClaimer{cache: c, storeID: storeID, ttl: ttl}
}

// Claim reports whether owner now holds row. The claim expires after the TTL
// so a crashed runner cannot block a row forever.
func (r *RowClaimer) Claim(ctx context.Context, row int, owner string) (bool, error) {
	return r.cache.Claim(ctx, ClaimKey(r.storeID, row), owner, r.ttl)
}

func (r *RowClaimer) Release(ctx context.Context, row int, owner string) error {
	return r.cache.Release(ctx, ClaimKey(r.storeID, row), owner)
}
