// Package metrics exposes Prometheus collectors for the city store.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkordes/worldwise/internal/store"
)

const namespace = "worldwise"

// StoreMetrics implements store.Observer.
type StoreMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// compile-time check: StoreMetrics must satisfy store.Observer.
var _ store.Observer = (*StoreMetrics)(nil)

// NewStoreMetrics creates the store collectors and registers them on reg.
// It panics if they are already registered there.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Store operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Wall time of store operations, including the cities API call.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(m.operations, m.duration)
	return m
}

// ObserveOperation records one finished operation. Skipped operations made
// no request, so they are counted but not timed.
func (m *StoreMetrics) ObserveOperation(op store.Operation, outcome store.Outcome, d time.Duration) {
	m.operations.WithLabelValues(string(op), string(outcome)).Inc()
	if outcome != store.OutcomeSkipped {
		m.duration.WithLabelValues(string(op)).Observe(d.Seconds())
	}
}

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the exposition format for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
