package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wms-platform/fbs-supply-service/internal/domain"
	"github.com/wms-platform/fbs-supply-service/pkg/metrics"
	"github.com/wms-platform/fbs-supply-service/pkg/resilience"
)

// Publisher is the part of the Redis client the notifier needs
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// Notifier broadcasts notifications over Redis pub/sub. It implements domain.Notifier.
type Notifier struct {
	publisher Publisher
	channel   string
	breaker   *resilience.CircuitBreaker
	metrics   *metrics.Metrics
}

// NewNotifier creates a notifier. breaker and m may be nil.
func NewNotifier(publisher Publisher, channel string, breaker *resilience.CircuitBreaker, m *metrics.Metrics) *Notifier {
	return &Notifier{
		publisher: publisher,
		channel:   channel,
		breaker:   breaker,
		metrics:   m,
	}
}

// Send publishes the notification as JSON
func (n *Notifier) Send(ctx context.Context, notification domain.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	publish := func() (interface{}, error) {
		return nil, n.publisher.Publish(ctx, n.channel, payload).Err()
	}

	if n.breaker != nil {
		_, err = n.breaker.Execute(ctx, publish)
	} else {
		_, err = publish()
	}

	if n.metrics != nil {
		n.metrics.RecordNotification(notification.Event, err == nil)
	}
	if err != nil {
		return fmt.Errorf("failed to publish %s notification: %w", notification.Event, err)
	}
	return nil
}
