package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fbs-supply-service/internal/domain"
	"github.com/wms-platform/fbs-supply-service/pkg/metrics"
	"github.com/wms-platform/fbs-supply-service/pkg/resilience"
)

type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
	messages [][]byte
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, message interface{}) *goredis.IntCmd {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return goredis.NewIntResult(0, p.err)
	}
	p.channels = append(p.channels, channel)
	p.messages = append(p.messages, message.([]byte))
	return goredis.NewIntResult(1, nil)
}

func TestNotifierPublishesJSON(t *testing.T) {
	publisher := &recordingPublisher{}
	notifier := NewNotifier(publisher, "fbs.notifications", nil, metrics.New(metrics.DefaultConfig("notifier-test")))

	err := notifier.Send(context.Background(), domain.Notification{
		Event:      domain.NotificationHide,
		Identifier: "order-1",
	})
	require.NoError(t, err)

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, "fbs.notifications", publisher.channels[0])

	var payload map[string]any
	require.NoError(t, json.Unmarshal(publisher.messages[0], &payload))
	assert.Equal(t, "hide", payload["event"])
	assert.Equal(t, "order-1", payload["identifier"])
	assert.Equal(t, false, payload["profile"])
}

func TestNotifierBreakerOpensAfterFailures(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("connection refused")}
	cfg := resilience.DefaultCircuitBreakerConfig("redis-notifier")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Minute
	notifier := NewNotifier(publisher, "fbs.notifications", resilience.NewCircuitBreaker(cfg, nil), nil)

	hide := domain.Notification{Event: domain.NotificationHide, Identifier: "order-1"}
	for i := 0; i < 2; i++ {
		err := notifier.Send(context.Background(), hide)
		assert.ErrorContains(t, err, "connection refused")
	}

	publisher.err = nil
	err := notifier.Send(context.Background(), hide)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Empty(t, publisher.messages)
}
