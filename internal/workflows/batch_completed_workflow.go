package workflows

import (
	"errors"
	"fmt"

	"go.temporal.io/sdk/workflow"

	"github.com/wms-platform/fbs-supply-service/pkg/temporal"
)

// BatchCompletedInput identifies the batch event the workflow handles
type BatchCompletedInput struct {
	EventID string `json:"eventId"`
	BatchID string `json:"batchId"`
}

// BatchCompletedResult carries the result status of each step
type BatchCompletedResult struct {
	OpenSupply       string `json:"openSupply"`
	AllocatePackages string `json:"allocatePackages"`
}

// WorkflowID derives a stable workflow id so a redelivered event joins the
// run already in flight
func WorkflowID(input BatchCompletedInput) string {
	return fmt.Sprintf("batch-completed-%s-%s", input.BatchID, input.EventID)
}

// BatchCompletedWorkflow opens the account's supply and then allocates the
// batch's orders into packages. The allocation runs even when opening failed
// since it re-checks its own preconditions.
func BatchCompletedWorkflow(ctx workflow.Context, input BatchCompletedInput) (*BatchCompletedResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting batch completed workflow", "batchId", input.BatchID, "eventId", input.EventID)

	opts := temporal.DefaultActivityOptions()
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: opts.StartToCloseTimeout,
		RetryPolicy:         opts.RetryPolicy.ToTemporal(),
	})

	result := &BatchCompletedResult{}
	var errs []error

	if err := workflow.ExecuteActivity(ctx, temporal.ActivityNames.OpenSupply, input).Get(ctx, &result.OpenSupply); err != nil {
		logger.Error("Open supply failed", "batchId", input.BatchID, "error", err)
		errs = append(errs, fmt.Errorf("open supply: %w", err))
	}

	if err := workflow.ExecuteActivity(ctx, temporal.ActivityNames.AllocatePackages, input).Get(ctx, &result.AllocatePackages); err != nil {
		logger.Error("Allocate packages failed", "batchId", input.BatchID, "error", err)
		errs = append(errs, fmt.Errorf("allocate packages: %w", err))
	}

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}

	logger.Info("Batch completed workflow finished",
		"batchId", input.BatchID,
		"openSupply", result.OpenSupply,
		"allocatePackages", result.AllocatePackages,
	)
	return result, nil
}
