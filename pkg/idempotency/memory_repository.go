package idempotency

import (
	"context"
	"sync"
)

// MemoryOperationRepository is an in-process OperationRepository. It is used by tests
// and by single-replica deployments that run without MongoDB.
type MemoryOperationRepository struct {
	mu   sync.Mutex
	done map[string]CompletedOperation
}

// NewMemoryOperationRepository creates an empty in-memory repository
func NewMemoryOperationRepository() *MemoryOperationRepository {
	return &MemoryOperationRepository{done: make(map[string]CompletedOperation)}
}

func memoryKey(namespace, key string) string {
	return namespace + "\x00" + key
}

// IsCompleted checks whether the operation has been recorded
func (r *MemoryOperationRepository) IsCompleted(_ context.Context, namespace, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.done[memoryKey(namespace, key)]
	return ok, nil
}

// MarkCompleted records the operation once
func (r *MemoryOperationRepository) MarkCompleted(_ context.Context, op *CompletedOperation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memoryKey(op.Namespace, op.Key)
	if _, ok := r.done[k]; ok {
		return ErrOperationAlreadyCompleted
	}
	r.done[k] = *op
	return nil
}

// EnsureIndexes is a no-op
func (r *MemoryOperationRepository) EnsureIndexes(context.Context) error {
	return nil
}

// Len returns the number of recorded operations
func (r *MemoryOperationRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.done)
}
