package application

import (
	"context"

	"github.com/wms-platform/fbs-supply-service/pkg/logging"
)

// CacheInvalidator drops every cached entry of a cache namespace
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// OrderCacheInvalidator clears cached order snapshots whenever an order changes
type OrderCacheInvalidator struct {
	cache  CacheInvalidator
	logger *logging.Logger
}

// NewOrderCacheInvalidator creates a new OrderCacheInvalidator
func NewOrderCacheInvalidator(cache CacheInvalidator, logger *logging.Logger) *OrderCacheInvalidator {
	return &OrderCacheInvalidator{cache: cache, logger: logger.WithComponent("order-cache-invalidator")}
}

// OrderChanged clears the cache. A failure is logged and otherwise ignored; the
// cache TTL bounds staleness.
func (h *OrderCacheInvalidator) OrderChanged(ctx context.Context, orderID string) {
	if err := h.cache.Invalidate(ctx); err != nil {
		h.logger.WithContext(ctx).WithError(err).Warn("Failed to clear order cache", "orderId", orderID)
	}
}
