package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"propcore/internal/model"
	"propcore/internal/repository"
)

// CachePostgres is a PostgreSQL implementation of repository.CacheRepository.
type CachePostgres struct {
	db *sql.DB
}

// NewCachePostgres creates a new CachePostgres repository.
func NewCachePostgres(db *sql.DB) *CachePostgres {
	return &CachePostgres{db: db}
}

var _ repository.CacheRepository = (*CachePostgres)(nil)

const cacheColumns = `provider, request_key, payload, COALESCE(validation_token, ''), fetched_at, ttl_seconds, stale`

func scanCacheEntry(row interface{ Scan(...any) error }) (*model.CacheEntry, error) {
	var e model.CacheEntry
	if err := row.Scan(
		&e.Provider,
		&e.RequestKey,
		&e.Payload,
		&e.ValidationToken,
		&e.FetchedAt,
		&e.TTLSeconds,
		&e.Stale,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

// Get returns the entry for (provider, key) regardless of staleness.
// A miss returns (nil, nil): no row is not an error for the cache.
func (r *CachePostgres) Get(ctx context.Context, provider, key string) (*model.CacheEntry, error) {
	const q = `SELECT ` + cacheColumns + ` FROM response_cache WHERE provider = $1 AND request_key = $2`
	e, err := scanCacheEntry(r.db.QueryRowContext(ctx, q, provider, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

// Upsert inserts or replaces the entry for (provider, key), clearing the
// stale flag on refresh.
func (r *CachePostgres) Upsert(ctx context.Context, e *model.CacheEntry) error {
	const q = `
		INSERT INTO response_cache (provider, request_key, payload, validation_token, fetched_at, ttl_seconds, stale)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		ON CONFLICT (provider, request_key) DO UPDATE
		SET payload = EXCLUDED.payload,
		    validation_token = EXCLUDED.validation_token,
		    fetched_at = EXCLUDED.fetched_at,
		    ttl_seconds = EXCLUDED.ttl_seconds,
		    stale = FALSE`
	_, err := r.db.ExecContext(ctx, q,
		e.Provider,
		e.RequestKey,
		[]byte(e.Payload),
		e.ValidationToken,
		e.FetchedAt,
		e.TTLSeconds,
	)
	return err
}

// MarkStale flags entries whose TTL has elapsed.
func (r *CachePostgres) MarkStale(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE response_cache
		SET stale = TRUE
		WHERE stale = FALSE AND fetched_at + make_interval(secs => ttl_seconds) < $1`
	res, err := r.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired removes entries stale beyond grace multiples of their TTL.
// Independent of the stale flag used for serving decisions.
func (r *CachePostgres) DeleteExpired(ctx context.Context, grace int, now time.Time) (int64, error) {
	const q = `
		DELETE FROM response_cache
		WHERE fetched_at + make_interval(secs => ttl_seconds * $1) < $2`
	res, err := r.db.ExecContext(ctx, q, grace, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
