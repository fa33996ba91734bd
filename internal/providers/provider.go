// Package providers integrates external property-data sources (energy
// certificates, flood risk, planning applications) behind one lookup
// contract. Responses are opaque payloads; interpretation is left to clients.
package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"propcore/internal/config"
)

// Provider names, also used as the cache namespace.
const (
	ProviderEPC      = "epc"
	ProviderFlood    = "flood"
	ProviderPlanning = "planning"
)

// Provider fetches one upstream data source. Fetch returns the raw response
// payload and an optional validation token (the upstream's ETag).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, params map[string]string) (payload json.RawMessage, token string, err error)
}

// Registry holds the configured providers by name.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds providers for every configured base URL. Providers with
// an empty base URL are left out; looking them up returns ok=false.
func NewRegistry(cfg config.ProvidersConfig) *Registry {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	r := &Registry{providers: make(map[string]Provider)}
	if cfg.EPCBaseURL != "" {
		r.Register(newHTTPProvider(ProviderEPC, cfg.EPCBaseURL, client))
	}
	if cfg.FloodBaseURL != "" {
		r.Register(newHTTPProvider(ProviderFlood, cfg.FloodBaseURL, client))
	}
	if cfg.PlanningBaseURL != "" {
		r.Register(newHTTPProvider(ProviderPlanning, cfg.PlanningBaseURL, client))
	}
	return r
}

// Register adds or replaces a provider.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Lookup returns the named provider.
func (r *Registry) Lookup(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the configured provider names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
