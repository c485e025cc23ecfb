package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wms-platform/fbs-supply-service/pkg/logging"
	"github.com/wms-platform/fbs-supply-service/pkg/metrics"
)

// BatchHandler reacts to a batch state change
type BatchHandler interface {
	Name() string
	// Priority orders handlers; higher runs first
	Priority() int
	Handle(ctx context.Context, evt BatchEvent) Result
}

// Registry is the ordered list of batch handlers, built once at process start
type Registry struct {
	handlers []BatchHandler
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewRegistry creates a registry ordered by descending priority. Handlers with
// equal priority keep their registration order.
func NewRegistry(logger *logging.Logger, m *metrics.Metrics, handlers ...BatchHandler) *Registry {
	ordered := append([]BatchHandler(nil), handlers...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() > ordered[j].Priority()
	})

	return &Registry{
		handlers: ordered,
		logger:   logger.WithComponent("batch-registry"),
		metrics:  m,
	}
}

// Handlers returns the handlers in dispatch order
func (r *Registry) Handlers() []BatchHandler {
	return append([]BatchHandler(nil), r.handlers...)
}

// Dispatch runs every handler in order. A failing handler does not stop the ones
// after it since each re-checks its own preconditions. The returned error joins
// all failures.
func (r *Registry) Dispatch(ctx context.Context, evt BatchEvent) error {
	var errs []error
	for _, h := range r.handlers {
		if res := r.run(ctx, h, evt); res.Failed() {
			errs = append(errs, fmt.Errorf("%s: %w", h.Name(), res.Err))
		}
	}
	return errors.Join(errs...)
}

// Run runs the named handler alone
func (r *Registry) Run(ctx context.Context, name string, evt BatchEvent) (Result, error) {
	for _, h := range r.handlers {
		if h.Name() == name {
			return r.run(ctx, h, evt), nil
		}
	}
	return Result{}, fmt.Errorf("no batch handler named %q", name)
}

func (r *Registry) run(ctx context.Context, h BatchHandler, evt BatchEvent) Result {
	start := time.Now()
	res := h.Handle(ctx, evt)
	duration := time.Since(start)

	if r.metrics != nil {
		r.metrics.RecordHandlerResult(h.Name(), res.Status.String(), duration)
	}

	logger := r.logger.WithContext(ctx)
	attrs := []any{
		"handler", h.Name(),
		"batchId", evt.BatchID,
		"result", res.Status.String(),
		"durationMs", duration.Milliseconds(),
	}
	if res.Failed() {
		logger.WithError(res.Err).Error("Batch handler failed", attrs...)
	} else {
		logger.Debug("Batch handler finished", attrs...)
	}
	return res
}
