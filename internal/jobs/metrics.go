package jobs

import (
	"propcore/internal/model"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts job outcomes per kind. A nil *Metrics is a no-op.
type Metrics struct {
	outcomes  *prometheus.CounterVec
	terminals *prometheus.CounterVec
}

// NewMetrics registers the job counters against the given registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "document_jobs_total",
				Help: "Job outcomes by kind and outcome (completed|requeued).",
			},
			[]string{"kind", "outcome"},
		),
		terminals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "document_jobs_terminal_failures_total",
				Help: "Jobs that exhausted their retry budget, by kind.",
			},
			[]string{"kind"},
		),
	}
	for _, c := range []prometheus.Collector{m.outcomes, m.terminals} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) completed(kind model.JobKind) {
	if m != nil {
		m.outcomes.WithLabelValues(string(kind), "completed").Inc()
	}
}

func (m *Metrics) requeued(kind model.JobKind) {
	if m != nil {
		m.outcomes.WithLabelValues(string(kind), "requeued").Inc()
	}
}

func (m *Metrics) terminal(kind model.JobKind) {
	if m != nil {
		m.terminals.WithLabelValues(string(kind)).Inc()
	}
}
