// Package metrics exposes rate limiter counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Rejected       *prometheus.CounterVec
	TrackedCallers prometheus.Gauge
}

// New registers the limiter metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "data_api_ratelimit_rejected_total",
			Help: "Requests refused by the per-caller rate limiter",
		}, []string{"key_type"}),
		TrackedCallers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "data_api_ratelimit_tracked_callers",
			Help: "Callers currently holding a token bucket",
		}),
	}
}

// IncrementRejected counts a refused request. keyType is "user" or "ip".
func (m *Metrics) IncrementRejected(keyType string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(keyType).Inc()
}

func (m *Metrics) SetTrackedCallers(count int) {
	if m == nil {
		return
	}
	m.TrackedCallers.Set(float64(count))
}
