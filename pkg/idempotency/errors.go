package idempotency

import "errors"

var (
	// ErrOperationAlreadyCompleted indicates that the operation key was already recorded
	ErrOperationAlreadyCompleted = errors.New("operation has already been completed")

	// ErrNamespaceRequired indicates that a token was requested without a namespace
	ErrNamespaceRequired = errors.New("deduplication namespace is required")

	// ErrStorageFailure indicates that the deduplication storage is unavailable
	ErrStorageFailure = errors.New("deduplication storage is temporarily unavailable")
)
