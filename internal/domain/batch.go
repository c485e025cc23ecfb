package domain

import "time"

// BatchStatus is the lifecycle status of a manufacturing batch
type BatchStatus string

const (
	BatchStatusNew        BatchStatus = "new"
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusCancelled  BatchStatus = "cancelled"
)

// BatchSnapshot is the current state of a manufacturing batch as projected from
// manufacturing events. This service never writes it.
type BatchSnapshot struct {
	BatchID string      `bson:"batchId" json:"batchId"`
	Status  BatchStatus `bson:"status" json:"status"`
	// CompletionChannel is the delivery type whose orders triggered completion
	CompletionChannel string         `bson:"completionChannel" json:"completionChannel"`
	Products          []BatchProduct `bson:"products" json:"products"`
	UpdatedAt         time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// BatchProduct is one produced line of a batch and the orders it fulfils
type BatchProduct struct {
	ProductSignature `bson:",inline"`
	Orders           []BatchOrderRef `bson:"orders" json:"orders"`
}

// BatchOrderRef references an order fulfilled by a batch product line
type BatchOrderRef struct {
	OrderID string `bson:"orderId" json:"orderId"`
}

// BatchInvariable holds facts fixed when the batch was created
type BatchInvariable struct {
	BatchID   string    `bson:"batchId" json:"batchId"`
	AccountID string    `bson:"accountId" json:"accountId"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// CompletedFor reports whether the batch completed for the given delivery channel
func (b *BatchSnapshot) CompletedFor(deliveryType string) bool {
	return b.Status == BatchStatusCompleted && b.CompletionChannel == deliveryType
}
