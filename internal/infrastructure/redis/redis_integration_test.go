//go:build integration

package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/wms-platform/fbs-supply-service/internal/domain"
	testutil "github.com/wms-platform/fbs-supply-service/pkg/testing"
)

type RedisIntegrationTestSuite struct {
	suite.Suite
	container *testutil.RedisContainer
	client    *goredis.Client
	ctx       context.Context
}

func (s *RedisIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := testutil.NewRedisContainer(s.ctx)
	s.Require().NoError(err)
	s.container = container

	cfg := DefaultConfig()
	cfg.Addr = container.Addr
	client, err := NewClient(s.ctx, cfg)
	s.Require().NoError(err)
	s.client = client
}

func (s *RedisIntegrationTestSuite) TearDownTest() {
	s.client.FlushDB(s.ctx)
}

func (s *RedisIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
	if s.container != nil {
		s.container.Close(s.ctx)
	}
}

func (s *RedisIntegrationTestSuite) TestNotifierDeliversToSubscribers() {
	sub := s.client.Subscribe(s.ctx, "fbs.notifications")
	defer sub.Close()
	_, err := sub.Receive(s.ctx)
	s.Require().NoError(err)

	notifier := NewNotifier(s.client, "fbs.notifications", nil, nil)
	s.Require().NoError(notifier.Send(s.ctx, domain.Notification{
		Event:      domain.NotificationHide,
		Identifier: "order-1",
	}))

	select {
	case msg := <-sub.Channel():
		var payload map[string]any
		s.Require().NoError(json.Unmarshal([]byte(msg.Payload), &payload))
		s.Equal("hide", payload["event"])
		s.Equal("order-1", payload["identifier"])
	case <-time.After(5 * time.Second):
		s.Fail("notification not received")
	}
}

func (s *RedisIntegrationTestSuite) TestOrderCacheInvalidation() {
	orders := &countingOrders{orders: map[string]*domain.OrderSnapshot{
		"order-1": {OrderID: "order-1", Status: "new"},
	}}
	cache := newTestCache(s.client, orders)

	for i := 0; i < 2; i++ {
		snapshot, err := cache.FindCurrent(s.ctx, "order-1")
		s.Require().NoError(err)
		s.Equal("new", snapshot.Status)
	}
	s.Equal(1, orders.calls)

	ttl, err := s.client.TTL(s.ctx, "fbs-supply-test:0:order:order-1").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))

	orders.orders["order-1"] = &domain.OrderSnapshot{OrderID: "order-1", Status: "ready_for_packaging"}
	s.Require().NoError(cache.Invalidate(s.ctx))

	snapshot, err := cache.FindCurrent(s.ctx, "order-1")
	s.Require().NoError(err)
	s.Equal("ready_for_packaging", snapshot.Status)
	s.Equal(2, orders.calls)
}

func TestRedisIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(RedisIntegrationTestSuite))
}
