package domain

import (
	"time"

	"github.com/google/uuid"
)

// SupplyStatus represents the status of a supply
type SupplyStatus string

const (
	SupplyStatusNew     SupplyStatus = "new"
	SupplyStatusOpen    SupplyStatus = "open"
	SupplyStatusClosed  SupplyStatus = "closed"
	SupplyStatusShipped SupplyStatus = "shipped"
)

// HoldsOpenSlot reports whether a supply in this status occupies the account's single open slot
func (s SupplyStatus) HoldsOpenSlot() bool {
	return s == SupplyStatusNew || s == SupplyStatusOpen
}

// Supply is the aggregate root for one outbound shipment to the marketplace.
// An account has at most one supply in new or open status.
type Supply struct {
	SupplyID  string       `bson:"supplyId" json:"supplyId"`
	AccountID string       `bson:"accountId" json:"accountId"`
	Status    SupplyStatus `bson:"status" json:"status"`
	// OpenSlot mirrors Status.HoldsOpenSlot so storage can index it
	OpenSlot     bool          `bson:"openSlot" json:"openSlot"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
	DomainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewSupply creates a new supply for the account
func NewSupply(accountID string) (*Supply, error) {
	if accountID == "" {
		return nil, ErrAccountRequired
	}

	now := time.Now().UTC()
	supply := &Supply{
		SupplyID:  uuid.New().String(),
		AccountID: accountID,
		Status:    SupplyStatusNew,
		OpenSlot:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	supply.AddDomainEvent(&SupplyOpenedEvent{
		SupplyID:  supply.SupplyID,
		AccountID: accountID,
		Status:    string(SupplyStatusNew),
		OpenedAt:  now,
	})

	return supply, nil
}

// AddDomainEvent adds a domain event
func (s *Supply) AddDomainEvent(event DomainEvent) {
	s.DomainEvents = append(s.DomainEvents, event)
}

// GetDomainEvents returns all domain events
func (s *Supply) GetDomainEvents() []DomainEvent {
	return s.DomainEvents
}

// ClearDomainEvents clears all domain events
func (s *Supply) ClearDomainEvents() {
	s.DomainEvents = nil
}
