package idempotency

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds deduplication Prometheus metrics
type Metrics struct {
	// Hits counts tokens found already done. Labels: service, namespace
	Hits *prometheus.CounterVec

	// Misses counts tokens checked and found not done. Labels: service, namespace
	Misses *prometheus.CounterVec

	// StorageErrors counts storage failures. Labels: service, operation
	StorageErrors *prometheus.CounterVec
}

// NewMetrics creates the deduplication metrics on the given registry
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		Hits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dedup_hits_total",
				Help: "Total number of deduplication tokens already marked done",
			},
			[]string{"service", "namespace"},
		),
		Misses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dedup_misses_total",
				Help: "Total number of deduplication tokens not yet marked done",
			},
			[]string{"service", "namespace"},
		),
		StorageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dedup_storage_errors_total",
				Help: "Total number of deduplication storage errors",
			},
			[]string{"service", "operation"},
		),
	}
}

// RecordHit records a token found already done
func (m *Metrics) RecordHit(service, namespace string) {
	if m != nil && m.Hits != nil {
		m.Hits.WithLabelValues(service, namespace).Inc()
	}
}

// RecordMiss records a token not yet done
func (m *Metrics) RecordMiss(service, namespace string) {
	if m != nil && m.Misses != nil {
		m.Misses.WithLabelValues(service, namespace).Inc()
	}
}

// RecordStorageError records a storage error
func (m *Metrics) RecordStorageError(service, operation string) {
	if m != nil && m.StorageErrors != nil {
		m.StorageErrors.WithLabelValues(service, operation).Inc()
	}
}
