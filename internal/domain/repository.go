package domain

import "context"

// Read models return (nil, nil) or "" when nothing is found.

// BatchEventReader reads the current batch snapshot
type BatchEventReader interface {
	FindCurrent(ctx context.Context, batchID string) (*BatchSnapshot, error)
}

// BatchInvariableReader reads the immutable facts of a batch
type BatchInvariableReader interface {
	Find(ctx context.Context, batchID string) (*BatchInvariable, error)
}

// OrderEventReader reads the current order snapshot
type OrderEventReader interface {
	FindCurrent(ctx context.Context, orderID string) (*OrderSnapshot, error)
}

// SupplyExistence answers which supplies an account holds
type SupplyExistence interface {
	ExistsNewOrOpen(ctx context.Context, accountID string) (bool, error)
	ExistsNew(ctx context.Context, accountID string) (bool, error)
}

// OpenSupplyIdentifier resolves the id of the supply holding the account's open slot
type OpenSupplyIdentifier interface {
	Find(ctx context.Context, accountID string) (string, error)
}

// PackageLineExistence reports whether an order line is already packaged
type PackageLineExistence interface {
	Exists(ctx context.Context, orderID, orderLineID string) (bool, error)
}

// SupplyRepository defines the interface for supply persistence
type SupplyRepository interface {
	SupplyExistence
	OpenSupplyIdentifier

	// Save inserts a supply. Returns ErrSupplyAlreadyOpen when the account
	// already holds a new or open supply.
	Save(ctx context.Context, supply *Supply) error
	FindOpenByAccount(ctx context.Context, accountID string) (*Supply, error)
}

// PackageRepository defines the interface for package persistence
type PackageRepository interface {
	PackageLineExistence

	// Save inserts a package. Returns ErrPackageLineTaken when any of its lines
	// is already in another package.
	Save(ctx context.Context, pkg *Package) error
	FindBySupply(ctx context.Context, supplyID string) ([]*Package, error)
}

// NotificationHide tells viewers to drop an order from the packaging queue
const NotificationHide = "hide"

// Notification is a broadcast to UI viewers
type Notification struct {
	Event      string `json:"event"`
	Identifier string `json:"identifier"`
	Profile    bool   `json:"profile"`
}

// Notifier broadcasts notifications. Delivery is best effort.
type Notifier interface {
	Send(ctx context.Context, notification Notification) error
}
