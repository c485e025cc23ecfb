package messaging

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/wms-platform/fbs-supply-service/pkg/cloudevents"
	"github.com/wms-platform/fbs-supply-service/pkg/kafka"
)

// OrderChangeListener reacts to order changes
type OrderChangeListener interface {
	OrderChanged(ctx context.Context, orderID string)
}

// OrderEventHandler consumes every event on the orders topic
type OrderEventHandler struct {
	listener OrderChangeListener
	validate *validator.Validate
}

// NewOrderEventHandler creates a new OrderEventHandler
func NewOrderEventHandler(listener OrderChangeListener) *OrderEventHandler {
	return &OrderEventHandler{listener: listener, validate: validator.New()}
}

// Handle implements kafka.EventHandler
func (h *OrderEventHandler) Handle(ctx context.Context, event *cloudevents.CloudEvent) error {
	var data cloudevents.OrderChangedData
	if err := event.DecodeData(&data); err != nil {
		return kafka.Permanent(err)
	}
	if err := h.validate.Struct(data); err != nil {
		return kafka.Permanent(fmt.Errorf("invalid order event %s: %w", event.ID, err))
	}

	h.listener.OrderChanged(ctx, data.OrderID)
	return nil
}
