package activities

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/wms-platform/fbs-supply-service/internal/application"
	"github.com/wms-platform/fbs-supply-service/internal/workflows"
	"github.com/wms-platform/fbs-supply-service/pkg/logging"
	"github.com/wms-platform/fbs-supply-service/pkg/metrics"
	pkgtemporal "github.com/wms-platform/fbs-supply-service/pkg/temporal"
	"github.com/wms-platform/fbs-supply-service/pkg/tracing"
)

const tracerName = "fbs-supply-activities"

// HandlerRunner runs a single batch handler by name
type HandlerRunner interface {
	Run(ctx context.Context, name string, evt application.BatchEvent) (application.Result, error)
}

// BatchActivities runs the batch handlers as Temporal activities
type BatchActivities struct {
	runner  HandlerRunner
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewBatchActivities creates a new BatchActivities instance. m may be nil.
func NewBatchActivities(runner HandlerRunner, m *metrics.Metrics) *BatchActivities {
	return &BatchActivities{
		runner:  runner,
		metrics: m,
		tracer:  otel.Tracer(tracerName),
	}
}

// OpenSupply runs the supply opener
func (a *BatchActivities) OpenSupply(ctx context.Context, input workflows.BatchCompletedInput) (string, error) {
	return a.traced(ctx, pkgtemporal.ActivityNames.OpenSupply, application.SupplyOpenerName, input)
}

// AllocatePackages runs the package allocator
func (a *BatchActivities) AllocatePackages(ctx context.Context, input workflows.BatchCompletedInput) (string, error) {
	return a.traced(ctx, pkgtemporal.ActivityNames.AllocatePackages, application.PackageAllocatorName, input)
}

// traced wraps run in a span and records the activity outcome
func (a *BatchActivities) traced(ctx context.Context, activityType, handler string, input workflows.BatchCompletedInput) (string, error) {
	start := time.Now()
	status, err := tracing.TracedOperation(ctx, a.tracer, "activity."+activityType,
		func(ctx context.Context) (string, error) {
			return a.run(ctx, handler, input)
		},
		attribute.String("fbs.handler", handler),
		attribute.String("fbs.batch_id", input.BatchID),
		attribute.String("cloudevents.event_id", input.EventID),
	)
	if a.metrics != nil {
		a.metrics.RecordActivityCompleted(activityType, err == nil, time.Since(start))
	}
	return status, err
}

// run returns the result status. A failed result becomes a retryable error;
// the dedup token stays unmarked so the retry picks up where the last attempt left off.
func (a *BatchActivities) run(ctx context.Context, handler string, input workflows.BatchCompletedInput) (string, error) {
	logger := activity.GetLogger(ctx)
	info := activity.GetInfo(ctx)

	ctx = logging.ContextWithCloudEventExtensions(ctx, input.EventID, "", info.WorkflowExecution.ID)
	ctx = logging.ContextWithBatchID(ctx, input.BatchID)

	res, err := a.runner.Run(ctx, handler, application.BatchEvent{EventID: input.EventID, BatchID: input.BatchID})
	if err != nil {
		return "", temporal.NewNonRetryableApplicationError(err.Error(), "UnknownHandler", err)
	}
	if res.Failed() {
		logger.Warn("Batch handler failed", "handler", handler, "attempt", info.Attempt, "error", res.Err)
		return "", fmt.Errorf("%s: %w", handler, res.Err)
	}

	logger.Info("Batch handler finished", "handler", handler, "result", res.Status.String())
	return res.Status.String(), nil
}
