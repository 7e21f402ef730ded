package tools

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects per-tool counters and latencies.
type Metrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	fallbacks   *prometheus.CounterVec
}

// NewMetrics creates the tool metrics and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hero",
			Name:      "tool_invocations_total",
			Help:      "Tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hero",
			Name:      "tool_duration_seconds",
			Help:      "Tool invocation latency.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"tool"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hero",
			Name:      "fallback_total",
			Help:      "Resolver answers by resolver and serving tier.",
		}, []string{"resolver", "tier"}),
	}
	if reg != nil {
		reg.MustRegister(m.invocations, m.duration, m.fallbacks)
	}
	return m
}

func (m *Metrics) observe(tool string, r Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if r.Failed() {
		outcome = "failed"
	}
	m.invocations.WithLabelValues(tool, outcome).Inc()
	m.duration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveFallback records which tier served a resolver call.
func (m *Metrics) ObserveFallback(resolver, tier string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(resolver, tier).Inc()
}
