package messaging

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.temporal.io/sdk/client"

	"github.com/wms-platform/fbs-supply-service/internal/application"
	"github.com/wms-platform/fbs-supply-service/internal/workflows"
	"github.com/wms-platform/fbs-supply-service/pkg/cloudevents"
	"github.com/wms-platform/fbs-supply-service/pkg/kafka"
	"github.com/wms-platform/fbs-supply-service/pkg/logging"
	"github.com/wms-platform/fbs-supply-service/pkg/metrics"
	"github.com/wms-platform/fbs-supply-service/pkg/temporal"
)

// Dispatch modes
const (
	DispatchInline   = "inline"
	DispatchTemporal = "temporal"
)

// Dispatcher hands a batch event to the handlers
type Dispatcher interface {
	Dispatch(ctx context.Context, evt application.BatchEvent) error
}

// WorkflowStarter starts Temporal workflows
type WorkflowStarter interface {
	StartWorkflow(ctx context.Context, workflowID string, workflowName string, args ...interface{}) (client.WorkflowRun, error)
}

// WorkflowDispatcher runs batch handlers through BatchCompletedWorkflow
type WorkflowDispatcher struct {
	starter WorkflowStarter
	metrics *metrics.Metrics
}

// NewWorkflowDispatcher creates a new WorkflowDispatcher
func NewWorkflowDispatcher(starter WorkflowStarter, m *metrics.Metrics) *WorkflowDispatcher {
	return &WorkflowDispatcher{starter: starter, metrics: m}
}

// Dispatch starts the workflow. A redelivered event maps to the same workflow id.
func (d *WorkflowDispatcher) Dispatch(ctx context.Context, evt application.BatchEvent) error {
	input := workflows.BatchCompletedInput{EventID: evt.EventID, BatchID: evt.BatchID}
	if _, err := d.starter.StartWorkflow(ctx, workflows.WorkflowID(input), temporal.WorkflowNames.BatchCompleted, input); err != nil {
		return fmt.Errorf("failed to start workflow: %w", err)
	}
	if d.metrics != nil {
		d.metrics.RecordWorkflowStarted(temporal.WorkflowNames.BatchCompleted)
	}
	return nil
}

// BatchEventHandler consumes batch state changes
type BatchEventHandler struct {
	dispatcher Dispatcher
	validate   *validator.Validate
	logger     *logging.Logger
}

// NewBatchEventHandler creates a new BatchEventHandler
func NewBatchEventHandler(dispatcher Dispatcher, logger *logging.Logger) *BatchEventHandler {
	return &BatchEventHandler{
		dispatcher: dispatcher,
		validate:   validator.New(),
		logger:     logger.WithComponent("batch-events"),
	}
}

// Handle implements kafka.EventHandler. Malformed payloads are permanent failures.
func (h *BatchEventHandler) Handle(ctx context.Context, event *cloudevents.CloudEvent) error {
	var data cloudevents.BatchStateChangedData
	if err := event.DecodeData(&data); err != nil {
		return kafka.Permanent(err)
	}
	if err := h.validate.Struct(data); err != nil {
		return kafka.Permanent(fmt.Errorf("invalid batch event %s: %w", event.ID, err))
	}

	ctx = logging.ContextWithBatchID(ctx, data.BatchID)
	h.logger.WithContext(ctx).Debug("Batch state changed", "status", data.Status)

	return h.dispatcher.Dispatch(ctx, application.BatchEvent{
		EventID: event.ID,
		BatchID: data.BatchID,
	})
}
