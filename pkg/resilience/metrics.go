package resilience

import (
	"github.com/sony/gobreaker"

	"github.com/wms-platform/fbs-supply-service/pkg/metrics"
)

// MetricsHook returns an OnStateChange callback that exports breaker state and trips
func MetricsHook(m *metrics.Metrics) func(name string, from, to gobreaker.State) {
	return func(name string, _, to gobreaker.State) {
		m.SetCircuitBreakerState(name, int(to))
		if to == gobreaker.StateOpen {
			m.RecordCircuitBreakerTrip(name)
		}
	}
}
