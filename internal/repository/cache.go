package repository

import (
	"context"
	"time"

	"propcore/internal/model"
)

// CacheRepository defines data access for the external-provider response
// cache. A miss is not an error: Get returns (nil, nil).
type CacheRepository interface {
	// Get returns the entry for (provider, key) regardless of staleness,
	// or (nil, nil) when no row exists.
	Get(ctx context.Context, provider, key string) (*model.CacheEntry, error)

	// Upsert inserts or replaces the entry for (provider, key).
	Upsert(ctx context.Context, e *model.CacheEntry) error

	// MarkStale flags entries whose TTL has elapsed at the given instant and
	// returns how many rows were flagged.
	MarkStale(ctx context.Context, now time.Time) (int64, error)

	// DeleteExpired removes entries stale beyond grace multiples of their TTL
	// at the given instant and returns how many rows were removed.
	DeleteExpired(ctx context.Context, grace int, now time.Time) (int64, error)
}
