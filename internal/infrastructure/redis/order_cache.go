package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wms-platform/fbs-supply-service/internal/domain"
	"github.com/wms-platform/fbs-supply-service/pkg/logging"
	"github.com/wms-platform/fbs-supply-service/pkg/metrics"
)

// Store is the part of the Redis client the order cache needs
type Store interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Incr(ctx context.Context, key string) *goredis.IntCmd
}

// OrderCache is a cache-aside decorator over an order read model.
// Entries are keyed by a namespace generation, so Invalidate drops every entry
// at once by bumping the generation. Old entries expire through their TTL.
type OrderCache struct {
	store     Store
	next      domain.OrderEventReader
	namespace string
	ttl       time.Duration
	logger    *logging.Logger
	metrics   *metrics.Metrics
}

// NewOrderCache creates an order cache in front of next
func NewOrderCache(store Store, next domain.OrderEventReader, namespace string, ttl time.Duration, logger *logging.Logger, m *metrics.Metrics) *OrderCache {
	return &OrderCache{
		store:     store,
		next:      next,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger.WithComponent("order-cache"),
		metrics:   m,
	}
}

func (c *OrderCache) generationKey() string {
	return c.namespace + ":generation"
}

func (c *OrderCache) generation(ctx context.Context) (string, error) {
	gen, err := c.store.Get(ctx, c.generationKey()).Result()
	if errors.Is(err, goredis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (c *OrderCache) entryKey(gen, orderID string) string {
	return fmt.Sprintf("%s:%s:order:%s", c.namespace, gen, orderID)
}

func (c *OrderCache) record(result string) {
	if c.metrics != nil {
		c.metrics.RecordOrderCacheLookup(result)
	}
}

// FindCurrent returns the cached snapshot or loads it from the read model.
// Redis failures fall through to the read model. Missing orders are not cached.
func (c *OrderCache) FindCurrent(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.record("error")
		c.logger.WithError(err).Warn("Order cache unavailable", "orderId", orderID)
		return c.next.FindCurrent(ctx, orderID)
	}

	key := c.entryKey(gen, orderID)
	raw, err := c.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var snapshot domain.OrderSnapshot
		if jsonErr := json.Unmarshal(raw, &snapshot); jsonErr == nil {
			c.record("hit")
			return &snapshot, nil
		}
		c.record("error")
	case errors.Is(err, goredis.Nil):
		c.record("miss")
	default:
		c.record("error")
		c.logger.WithError(err).Warn("Order cache read failed", "orderId", orderID)
	}

	snapshot, err := c.next.FindCurrent(ctx, orderID)
	if err != nil || snapshot == nil {
		return snapshot, err
	}

	if payload, err := json.Marshal(snapshot); err == nil {
		if err := c.store.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.WithError(err).Warn("Order cache write failed", "orderId", orderID)
		}
	}
	return snapshot, nil
}

// Invalidate drops every cached order
func (c *OrderCache) Invalidate(ctx context.Context) error {
	return c.store.Incr(ctx, c.generationKey()).Err()
}
