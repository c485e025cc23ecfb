package application

import "github.com/wms-platform/fbs-supply-service/internal/domain"

// NewSupplyCommand opens a supply for an account
type NewSupplyCommand struct {
	AccountID string
}

// NewPackageCommand creates a package in a supply
type NewPackageCommand struct {
	AccountID  string
	SupplyID   string
	OutOfBatch bool
	Lines      []domain.PackageOrderLine
}

// BatchEvent identifies one delivery of a batch state change
type BatchEvent struct {
	EventID string `json:"eventId"`
	BatchID string `json:"batchId"`
}

// HandlerConfig holds the settings shared by the batch handlers
type HandlerConfig struct {
	// Namespace scopes dedup keys
	Namespace string
	// FBSDeliveryType is the seller-fulfilled delivery type
	FBSDeliveryType string
	// ReadyForPackagingStatus is the order status that admits packaging
	ReadyForPackagingStatus string
}
