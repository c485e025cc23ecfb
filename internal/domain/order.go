package domain

import "time"

// OrderSnapshot is the current state of a marketplace order as projected from order events
type OrderSnapshot struct {
	OrderID      string             `bson:"orderId" json:"orderId"`
	Status       string             `bson:"status" json:"status"`
	DeliveryType string             `bson:"deliveryType" json:"deliveryType"`
	Lines        []OrderProductLine `bson:"lines" json:"lines"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OrderProductLine is one ordered item
type OrderProductLine struct {
	LineID           string `bson:"lineId" json:"lineId"`
	ProductSignature `bson:",inline"`
}

// ReadyForPackaging reports whether the order waits for packaging on the given channel
func (o *OrderSnapshot) ReadyForPackaging(readyStatus, deliveryType string) bool {
	return o.Status == readyStatus && o.DeliveryType == deliveryType
}
