package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PackageOrderLine places one order line in a package
type PackageOrderLine struct {
	OrderID     string `bson:"orderId" json:"orderId"`
	OrderLineID string `bson:"orderLineId" json:"orderLineId"`
	Sort        int64  `bson:"sort" json:"sort"`
}

// Key returns the storage key of the order line
func (l PackageOrderLine) Key() string {
	return LineKey(l.OrderID, l.OrderLineID)
}

var lineKeyEscaper = strings.NewReplacer(`\`, `\\`, ":", `\:`)

// LineKey joins an order id and order line id. Both parts are escaped so that
// ("a:b", "c") and ("a", "b:c") map to different keys.
func LineKey(orderID, orderLineID string) string {
	return lineKeyEscaper.Replace(orderID) + ":" + lineKeyEscaper.Replace(orderLineID)
}

// Package is the aggregate root for a group of order lines packed together.
// It is append-only: once created it is never modified.
type Package struct {
	PackageID string `bson:"packageId" json:"packageId"`
	AccountID string `bson:"accountId" json:"accountId"`
	SupplyID  string `bson:"supplyId" json:"supplyId"`
	// OutOfBatch marks lines that were not produced by the triggering batch
	OutOfBatch bool               `bson:"outOfBatch" json:"outOfBatch"`
	Lines      []PackageOrderLine `bson:"lines" json:"lines"`
	// LineKeys carries one LineKey per line for the unique line index
	LineKeys     []string      `bson:"lineKeys" json:"-"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	DomainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewPackage creates a package in a supply
func NewPackage(accountID, supplyID string, outOfBatch bool, lines []PackageOrderLine) (*Package, error) {
	if accountID == "" {
		return nil, ErrAccountRequired
	}
	if supplyID == "" {
		return nil, ErrSupplyRequired
	}
	if len(lines) == 0 {
		return nil, ErrNoPackageLines
	}

	keys := make([]string, len(lines))
	for i, line := range lines {
		keys[i] = line.Key()
	}

	pkg := &Package{
		PackageID:  uuid.New().String(),
		AccountID:  accountID,
		SupplyID:   supplyID,
		OutOfBatch: outOfBatch,
		Lines:      append([]PackageOrderLine(nil), lines...),
		LineKeys:   keys,
		CreatedAt:  time.Now().UTC(),
	}

	pkg.AddDomainEvent(&PackageCreatedEvent{
		PackageID:  pkg.PackageID,
		AccountID:  accountID,
		SupplyID:   supplyID,
		OutOfBatch: outOfBatch,
		Lines:      pkg.Lines,
		CreatedAt:  pkg.CreatedAt,
	})

	return pkg, nil
}

// AddDomainEvent adds a domain event
func (p *Package) AddDomainEvent(event DomainEvent) {
	p.DomainEvents = append(p.DomainEvents, event)
}

// GetDomainEvents returns all domain events
func (p *Package) GetDomainEvents() []DomainEvent {
	return p.DomainEvents
}

// ClearDomainEvents clears all domain events
func (p *Package) ClearDomainEvents() {
	p.DomainEvents = nil
}
