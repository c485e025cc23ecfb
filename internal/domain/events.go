package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// SupplyOpenedEvent is published when a supply is created for an account
type SupplyOpenedEvent struct {
	SupplyID  string    `json:"supplyId"`
	AccountID string    `json:"accountId"`
	Status    string    `json:"status"`
	OpenedAt  time.Time `json:"openedAt"`
}

func (e *SupplyOpenedEvent) EventType() string    { return "fbs.supply.opened" }
func (e *SupplyOpenedEvent) OccurredAt() time.Time { return e.OpenedAt }

// PackageCreatedEvent is published when a package is created
type PackageCreatedEvent struct {
	PackageID  string             `json:"packageId"`
	AccountID  string             `json:"accountId"`
	SupplyID   string             `json:"supplyId"`
	OutOfBatch bool               `json:"outOfBatch"`
	Lines      []PackageOrderLine `json:"lines"`
	CreatedAt  time.Time          `json:"createdAt"`
}

func (e *PackageCreatedEvent) EventType() string    { return "fbs.package.created" }
func (e *PackageCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }
