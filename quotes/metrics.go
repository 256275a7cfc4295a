package quotes

import "github.com/prometheus/client_golang/prometheus"

// Fetch outcomes recorded per source.
const (
	OutcomeCacheHit = "cache_hit"
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
)

// Metrics counts quote fetches by source and outcome.
type Metrics struct {
	fetches *prometheus.CounterVec
}

// NewMetrics registers the counters with reg. A nil reg leaves them
// unregistered, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marginpilot",
			Name:      "quote_fetches_total",
			Help:      "Quote lookups by source and outcome.",
		}, []string{"source", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.fetches)
	}
	return m
}

func (m *Metrics) observe(source, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.fetches.WithLabelValues(source, outcome).Add(float64(n))
}
