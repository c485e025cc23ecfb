package idempotency

import "context"

// OperationRepository stores completed operation markers.
// Implementations must make MarkCompleted atomic per (namespace, key).
type OperationRepository interface {
	// IsCompleted reports whether the (namespace, key) pair has been recorded
	IsCompleted(ctx context.Context, namespace, key string) (bool, error)

	// MarkCompleted records the operation. Returns ErrOperationAlreadyCompleted
	// when another worker recorded it first.
	MarkCompleted(ctx context.Context, op *CompletedOperation) error

	// EnsureIndexes ensures that all required indexes are created
	EnsureIndexes(ctx context.Context) error
}
