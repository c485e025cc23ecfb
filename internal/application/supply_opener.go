package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/wms-platform/fbs-supply-service/internal/domain"
	"github.com/wms-platform/fbs-supply-service/pkg/idempotency"
	"github.com/wms-platform/fbs-supply-service/pkg/logging"
)

const (
	SupplyOpenerName     = "supply-opener"
	SupplyOpenerPriority = 80
)

// SupplyOpenerDeps are the collaborators of SupplyOpener
type SupplyOpenerDeps struct {
	Dedup       idempotency.Deduplicator
	Batches     domain.BatchEventReader
	Invariables domain.BatchInvariableReader
	Supplies    domain.SupplyExistence
	Command     OpenSupplyCommandHandler
	Logger      *logging.Logger
}

// SupplyOpener makes sure the owning account of a completed FBS batch has a new
// or open supply.
type SupplyOpener struct {
	gate     batchGate
	supplies domain.SupplyExistence
	command  OpenSupplyCommandHandler
	logger   *logging.Logger
}

// NewSupplyOpener creates a new SupplyOpener
func NewSupplyOpener(config HandlerConfig, deps SupplyOpenerDeps) *SupplyOpener {
	return &SupplyOpener{
		gate: batchGate{
			config:      config,
			dedup:       deps.Dedup,
			batches:     deps.Batches,
			invariables: deps.Invariables,
		},
		supplies: deps.Supplies,
		command:  deps.Command,
		logger:   deps.Logger.WithComponent(SupplyOpenerName),
	}
}

// Name implements BatchHandler
func (o *SupplyOpener) Name() string { return SupplyOpenerName }

// Priority implements BatchHandler
func (o *SupplyOpener) Priority() int { return SupplyOpenerPriority }

// Handle implements BatchHandler
func (o *SupplyOpener) Handle(ctx context.Context, evt BatchEvent) Result {
	ctx = logging.ContextWithBatchID(ctx, evt.BatchID)
	logger := o.logger.WithContext(ctx)

	token, res := o.gate.begin(ctx, o.Name(), evt)
	if res != nil {
		return *res
	}

	_, accountID, res := o.gate.admit(ctx, logger, evt)
	if res != nil {
		return *res
	}
	logger = logger.WithFields(map[string]any{"accountId": accountID})

	exists, err := o.supplies.ExistsNewOrOpen(ctx, accountID)
	if err != nil {
		return Failure(ErrPersistenceFailure, fmt.Errorf("check open supply: %w", err))
	}
	if exists {
		logger.Debug("Account already has a new or open supply")
		return markDone(ctx, logger, token, Success())
	}

	supply, err := o.command.Handle(ctx, NewSupplyCommand{AccountID: accountID})
	switch {
	case errors.Is(err, domain.ErrSupplyAlreadyOpen):
		logger.Info("Supply opened concurrently for account")
	case err != nil:
		logger.WithError(err).Critical("Failed to open supply")
		return Failure(ErrPersistenceFailure, err)
	case supply == nil:
		logger.Critical("Open supply command returned no supply")
		return Failure(ErrPersistenceFailure, errors.New("open supply command returned no supply"))
	default:
		logger.Info("Supply opened", "supplyId", supply.SupplyID)
	}

	return markDone(ctx, logger, token, Success())
}
