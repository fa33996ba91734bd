package cache

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache outcomes per provider. A nil *Metrics is a no-op so
// tests can skip registration.
type Metrics struct {
	hits   *prometheus.CounterVec
	stale  *prometheus.CounterVec
	misses *prometheus.CounterVec
}

// NewMetrics registers the cache counters against the given registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "response_cache_hits_total",
				Help: "Fresh cache hits served, by provider.",
			},
			[]string{"provider"},
		),
		stale: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "response_cache_stale_served_total",
				Help: "Stale entries served as degraded fallback, by provider.",
			},
			[]string{"provider"},
		),
		misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "response_cache_misses_total",
				Help: "Cache misses (absent or expired), by provider.",
			},
			[]string{"provider"},
		),
	}
	for _, c := range []prometheus.Collector{m.hits, m.stale, m.misses} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) hit(provider string) {
	if m != nil {
		m.hits.WithLabelValues(provider).Inc()
	}
}

func (m *Metrics) staleServed(provider string) {
	if m != nil {
		m.stale.WithLabelValues(provider).Inc()
	}
}

func (m *Metrics) miss(provider string) {
	if m != nil {
		m.misses.WithLabelValues(provider).Inc()
	}
}
