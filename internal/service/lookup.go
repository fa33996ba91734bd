package service

import (
	"context"
	"encoding/json"
	"errors"

	"propcore/internal/cache"
	"propcore/internal/providers"
)

// ErrUnknownProvider rejects lookups against a provider that is not
// configured.
var ErrUnknownProvider = errors.New("unknown provider")

// LookupService serves external property-data lookups through the response
// cache: fresh entries are served directly, misses fetch upstream once per
// key, and a failed upstream degrades to a stale entry when one exists.
type LookupService interface {
	// Lookup returns the provider's payload for the given parameters.
	Lookup(ctx context.Context, provider string, params map[string]string) (json.RawMessage, error)

	// Providers lists the configured provider names.
	Providers() []string
}

type lookupService struct {
	registry *providers.Registry
	cache    *cache.Service
	ttl      int
}

// NewLookupService constructs a LookupService. ttlSeconds is the cache TTL
// applied to fetched responses.
func NewLookupService(registry *providers.Registry, cacheSvc *cache.Service, ttlSeconds int) LookupService {
	if ttlSeconds <= 0 {
		ttlSeconds = 86400
	}
	return &lookupService{registry: registry, cache: cacheSvc, ttl: ttlSeconds}
}

func (s *lookupService) Lookup(ctx context.Context, provider string, params map[string]string) (json.RawMessage, error) {
	p, ok := s.registry.Lookup(provider)
	if !ok {
		return nil, ErrUnknownProvider
	}
	return s.cache.GetOrFetch(ctx, provider, params, s.ttl, func(ctx context.Context) (json.RawMessage, string, error) {
		return p.Fetch(ctx, params)
	})
}

func (s *lookupService) Providers() []string {
	return s.registry.Names()
}
