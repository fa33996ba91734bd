// Package cache implements the TTL response cache for external data-provider
// lookups: normalized keys, stale-allowed degraded reads, in-flight request
// deduplication and a periodic eviction sweep.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"propcore/internal/apperr"
	"propcore/internal/model"
	"propcore/internal/repository"
)

// FetchFunc populates the cache on a miss. It returns the opaque upstream
// payload and an optional validation token (e.g. an ETag).
type FetchFunc func(ctx context.Context) (payload json.RawMessage, token string, err error)

// Service is the response cache. Safe for concurrent use.
type Service struct {
	repo    repository.CacheRepository
	group   singleflight.Group
	grace   int
	metrics *Metrics
	now     func() time.Time
}

// NewService constructs the cache over its store. grace is the eviction
// multiplier applied to each entry's TTL; metrics may be nil.
func NewService(repo repository.CacheRepository, grace int, metrics *Metrics) *Service {
	if grace <= 0 {
		grace = 7
	}
	return &Service{
		repo:    repo,
		grace:   grace,
		metrics: metrics,
		now:     time.Now,
	}
}

// Get returns the fresh entry for (provider, params), or (nil, nil) on a miss.
// With allowStale, an expired entry is returned with Stale set — the degraded
// fallback for unavailable upstreams. A miss is never an error.
func (s *Service) Get(ctx context.Context, provider string, params map[string]string, allowStale bool) (*model.CacheEntry, error) {
	entry, err := s.repo.Get(ctx, provider, NormalizeKey(params))
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if entry == nil {
		s.metrics.miss(provider)
		return nil, nil
	}
	if entry.StaleAt(s.now()) {
		entry.Stale = true
		if !allowStale {
			s.metrics.miss(provider)
			return nil, nil
		}
		s.metrics.staleServed(provider)
		return entry, nil
	}
	s.metrics.hit(provider)
	return entry, nil
}

// Put upserts the entry for (provider, params) after a successful upstream
// fetch.
func (s *Service) Put(ctx context.Context, provider string, params map[string]string, payload json.RawMessage, token string, ttlSeconds int) error {
	e := &model.CacheEntry{
		Provider:        provider,
		RequestKey:      NormalizeKey(params),
		Payload:         payload,
		ValidationToken: token,
		FetchedAt:       s.now().UTC(),
		TTLSeconds:      ttlSeconds,
	}
	if err := s.repo.Upsert(ctx, e); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// GetOrFetch serves from cache when fresh, otherwise fetches upstream exactly
// once per (provider, key) across concurrent callers and populates the cache.
// When the upstream fails, a stale entry (if any) is served as a degraded
// fallback; with no fallback the error wraps apperr.ErrUpstream.
func (s *Service) GetOrFetch(ctx context.Context, provider string, params map[string]string, ttlSeconds int, fetch FetchFunc) (json.RawMessage, error) {
	key := NormalizeKey(params)

	entry, err := s.repo.Get(ctx, provider, key)
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if entry != nil && !entry.StaleAt(s.now()) {
		s.metrics.hit(provider)
		return entry.Payload, nil
	}
	s.metrics.miss(provider)

	v, err, _ := s.group.Do(provider+"\x00"+key, func() (any, error) {
		payload, token, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if putErr := s.Put(ctx, provider, params, payload, token, ttlSeconds); putErr != nil {
			// Population failure degrades to an uncached response.
			return payload, nil
		}
		return payload, nil
	})
	if err != nil {
		if entry != nil {
			s.metrics.staleServed(provider)
			return entry.Payload, nil
		}
		return nil, fmt.Errorf("fetch %s: %w: %w", provider, apperr.ErrUpstream, err)
	}
	return v.(json.RawMessage), nil
}

// Sweep flags newly stale entries and evicts entries expired beyond the grace
// multiplier. Idempotent; intended for a recurring external scheduler.
func (s *Service) Sweep(ctx context.Context) (flagged, evicted int64, err error) {
	now := s.now().UTC()
	flagged, err = s.repo.MarkStale(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("mark stale: %w", err)
	}
	evicted, err = s.repo.DeleteExpired(ctx, s.grace, now)
	if err != nil {
		return flagged, 0, fmt.Errorf("evict expired: %w", err)
	}
	return flagged, evicted, nil
}
