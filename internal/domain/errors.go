package domain

import "errors"

// Errors
var (
	ErrAccountRequired = errors.New("account id is required")
	ErrSupplyRequired  = errors.New("supply id is required")
	ErrNoPackageLines  = errors.New("package has no order lines")

	// ErrSupplyAlreadyOpen is returned by a SupplyRepository when the account already
	// holds a new or open supply. Storage enforces it, so it is reliable under races.
	ErrSupplyAlreadyOpen = errors.New("supply already open for account")

	// ErrPackageLineTaken is returned when an order line is already in another package
	ErrPackageLineTaken = errors.New("order line already packaged")
)
