package messaging

import (
	"github.com/wms-platform/fbs-supply-service/pkg/cloudevents"
	"github.com/wms-platform/fbs-supply-service/pkg/kafka"
)

// Subscriber registers handlers on a consumer
type Subscriber interface {
	Subscribe(topic string, eventType string, handler kafka.EventHandler)
	SubscribeAll(topic string, handler kafka.EventHandler)
}

// Topics names the topics the service consumes
type Topics struct {
	Batches string
	Orders  string
}

// Register subscribes the batch and order handlers
func Register(sub Subscriber, topics Topics, batches *BatchEventHandler, orders *OrderEventHandler) {
	sub.Subscribe(topics.Batches, cloudevents.BatchStateChanged, batches.Handle)
	sub.SubscribeAll(topics.Orders, orders.Handle)
}
