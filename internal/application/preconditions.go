package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fbs-supply-service/internal/domain"
	"github.com/wms-platform/fbs-supply-service/pkg/idempotency"
	"github.com/wms-platform/fbs-supply-service/pkg/logging"
)

// batchGate holds the checks both batch handlers run before doing any work
type batchGate struct {
	config      HandlerConfig
	dedup       idempotency.Deduplicator
	batches     domain.BatchEventReader
	invariables domain.BatchInvariableReader
}

// begin opens the handler's dedup token, keyed on the batch so that later events
// for an already handled batch are no-ops. A non-nil Result ends the invocation.
func (g *batchGate) begin(ctx context.Context, handler string, evt BatchEvent) (idempotency.Token, *Result) {
	token := g.dedup.Begin(g.config.Namespace, evt.BatchID, handler)

	done, err := token.IsDone(ctx)
	if err != nil {
		res := Failure(ErrPersistenceFailure, err)
		return nil, &res
	}
	if done {
		res := AlreadyDone()
		return nil, &res
	}
	return token, nil
}

// admit loads the batch and its owning account. A non-nil Result ends the invocation.
func (g *batchGate) admit(ctx context.Context, logger *logging.Logger, evt BatchEvent) (*domain.BatchSnapshot, string, *Result) {
	batch, err := g.batches.FindCurrent(ctx, evt.BatchID)
	if err != nil {
		res := Failure(ErrPersistenceFailure, fmt.Errorf("load batch %s: %w", evt.BatchID, err))
		return nil, "", &res
	}
	if batch == nil {
		logger.Critical("Batch snapshot not found")
		res := Failure(ErrDataIntegrityGap, fmt.Errorf("batch %s has no snapshot", evt.BatchID))
		return nil, "", &res
	}

	if !batch.CompletedFor(g.config.FBSDeliveryType) {
		logger.Debug("Batch not completed for FBS",
			"status", batch.Status,
			"completionChannel", batch.CompletionChannel,
		)
		res := NotApplicable()
		return nil, "", &res
	}

	invariable, err := g.invariables.Find(ctx, evt.BatchID)
	if err != nil {
		res := Failure(ErrPersistenceFailure, fmt.Errorf("load batch invariable %s: %w", evt.BatchID, err))
		return nil, "", &res
	}
	if invariable == nil || invariable.AccountID == "" {
		logger.Debug("Batch has no owning account")
		res := NotApplicable()
		return nil, "", &res
	}

	return batch, invariable.AccountID, nil
}

// markDone marks the token after every side effect committed
func markDone(ctx context.Context, logger *logging.Logger, token idempotency.Token, res Result) Result {
	if err := token.MarkDone(ctx); err != nil {
		logger.WithError(err).Error("Failed to mark operation done", "key", token.Key())
		return Failure(ErrPersistenceFailure, err)
	}
	return res
}
