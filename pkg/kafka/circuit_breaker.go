package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/wms-platform/fbs-supply-service/pkg/cloudevents"
	"github.com/wms-platform/fbs-supply-service/pkg/logging"
	"github.com/wms-platform/fbs-supply-service/pkg/metrics"
	"github.com/wms-platform/fbs-supply-service/pkg/resilience"
)

// EventPublisher publishes a single CloudEvent to a topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error
}

// CircuitBreakerProducer wraps an EventPublisher with circuit breaker protection
type CircuitBreakerProducer struct {
	producer       EventPublisher
	circuitBreaker *resilience.CircuitBreaker
}

// NewCircuitBreakerProducer creates a new circuit breaker protected Kafka producer
func NewCircuitBreakerProducer(producer EventPublisher, config *resilience.CircuitBreakerConfig, logger *logging.Logger) *CircuitBreakerProducer {
	var slogLogger *slog.Logger
	if logger != nil && logger.Logger != nil {
		slogLogger = logger.Logger
	}

	return &CircuitBreakerProducer{
		producer:       producer,
		circuitBreaker: resilience.NewCircuitBreaker(config, slogLogger),
	}
}

// PublishEvent publishes a CloudEvent with circuit breaker protection
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error {
	_, err := p.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishEvent(ctx, topic, event)
	})
	return err
}

// NewProductionProducer creates a Kafka producer with instrumentation and a circuit breaker
func NewProductionProducer(config *Config, m *metrics.Metrics, logger *logging.Logger) (*CircuitBreakerProducer, *Producer) {
	base := NewProducer(config)
	instrumented := NewInstrumentedProducer(base, m, logger)

	cbConfig := resilience.DefaultCircuitBreakerConfig("kafka-producer")
	cbConfig.MaxRequests = 5
	cbConfig.Timeout = 30 * time.Second
	if m != nil {
		cbConfig.OnStateChange = resilience.MetricsHook(m)
	}

	return NewCircuitBreakerProducer(instrumented, cbConfig, logger), base
}
