package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"regioniq/pkg/platform/sentinel"
)

// Metrics provides observability for the observation query engine.
type Metrics struct {
	// Query outcomes by result code ("ok" or the domain error code)
	QueryOutcome *prometheus.CounterVec

	EstimatedRecords prometheus.Histogram
	ReturnedRecords  prometheus.Histogram
	QueryLatency     prometheus.Histogram

	// Store page fetches by table and status
	PageLatency *prometheus.HistogramVec
	PageTotal   *prometheus.CounterVec
}

// New creates a Metrics instance registered with reg. A nil reg uses the
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	recordBuckets := []float64{1, 10, 100, 1000, 10_000, 50_000, 100_000, 250_000}
	return &Metrics{
		QueryOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regioniq_observation_queries_total",
			Help: "Observation queries by outcome code",
		}, []string{"outcome"}),

		EstimatedRecords: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "regioniq_observation_estimated_records",
			Help:    "Estimated record count of accepted and rejected queries",
			Buckets: append(recordBuckets, 1_000_000, 10_000_000),
		}),

		ReturnedRecords: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "regioniq_observation_returned_records",
			Help:    "Records returned per successful query",
			Buckets: recordBuckets,
		}),

		QueryLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "regioniq_observation_query_duration_seconds",
			Help:    "Duration of a full observation query including all page fetches",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		PageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "regioniq_store_page_duration_seconds",
			Help:    "Duration of one store page fetch by table",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}, []string{"table"}),

		PageTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regioniq_store_pages_total",
			Help: "Store page fetches by table and status",
		}, []string{"table", "status"}),
	}
}

// ObserveQuery records a finished query.
func (m *Metrics) ObserveQuery(outcome string, estimated, returned int, d time.Duration) {
	if m == nil {
		return
	}
	m.QueryOutcome.WithLabelValues(outcome).Inc()
	if estimated > 0 {
		m.EstimatedRecords.Observe(float64(estimated))
	}
	if outcome == "ok" {
		m.ReturnedRecords.Observe(float64(returned))
		m.QueryLatency.Observe(d.Seconds())
	}
}

// ObservePage implements store.PageObserver.
func (m *Metrics) ObservePage(table string, _ int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.PageLatency.WithLabelValues(table).Observe(d.Seconds())
	m.PageTotal.WithLabelValues(table, pageStatus(err)).Inc()
}

func pageStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, sentinel.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, sentinel.ErrRejected):
		return "rejected"
	case errors.Is(err, sentinel.ErrBadResponse):
		return "bad_response"
	default:
		return "unavailable"
	}
}
