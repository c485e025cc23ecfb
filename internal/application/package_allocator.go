package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wms-platform/fbs-supply-service/internal/domain"
	"github.com/wms-platform/fbs-supply-service/pkg/idempotency"
	"github.com/wms-platform/fbs-supply-service/pkg/logging"
)

const (
	PackageAllocatorName     = "package-allocator"
	PackageAllocatorPriority = 10
)

// PackageAllocatorDeps are the collaborators of PackageAllocator
type PackageAllocatorDeps struct {
	Dedup       idempotency.Deduplicator
	Batches     domain.BatchEventReader
	Invariables domain.BatchInvariableReader
	Supplies    domain.SupplyExistence
	OpenSupply  domain.OpenSupplyIdentifier
	Orders      domain.OrderEventReader
	Lines       domain.PackageLineExistence
	Command     PackageCommandHandler
	Notifier    domain.Notifier
	Logger      *logging.Logger
}

// PackageAllocator moves the orders of a completed FBS batch into packages of the
// account's new supply. Lines matching the batch product go into one in-batch
// package per product line; every other line of a qualifying order gets its own
// out-of-batch package.
type PackageAllocator struct {
	gate       batchGate
	supplies   domain.SupplyExistence
	openSupply domain.OpenSupplyIdentifier
	orders     domain.OrderEventReader
	lines      domain.PackageLineExistence
	command    PackageCommandHandler
	notifier   domain.Notifier
	logger     *logging.Logger
	now        func() time.Time
}

// NewPackageAllocator creates a new PackageAllocator
func NewPackageAllocator(config HandlerConfig, deps PackageAllocatorDeps) *PackageAllocator {
	return &PackageAllocator{
		gate: batchGate{
			config:      config,
			dedup:       deps.Dedup,
			batches:     deps.Batches,
			invariables: deps.Invariables,
		},
		supplies:   deps.Supplies,
		openSupply: deps.OpenSupply,
		orders:     deps.Orders,
		lines:      deps.Lines,
		command:    deps.Command,
		notifier:   deps.Notifier,
		logger:     deps.Logger.WithComponent(PackageAllocatorName),
		now:        time.Now,
	}
}

// Name implements BatchHandler
func (a *PackageAllocator) Name() string { return PackageAllocatorName }

// Priority implements BatchHandler
func (a *PackageAllocator) Priority() int { return PackageAllocatorPriority }

// Handle implements BatchHandler
func (a *PackageAllocator) Handle(ctx context.Context, evt BatchEvent) Result {
	ctx = logging.ContextWithBatchID(ctx, evt.BatchID)
	logger := a.logger.WithContext(ctx)

	token, res := a.gate.begin(ctx, a.Name(), evt)
	if res != nil {
		return *res
	}

	batch, accountID, res := a.gate.admit(ctx, logger, evt)
	if res != nil {
		return *res
	}
	logger = logger.WithFields(map[string]any{"accountId": accountID})

	hasNew, err := a.supplies.ExistsNew(ctx, accountID)
	if err != nil {
		return Failure(ErrPersistenceFailure, fmt.Errorf("check new supply: %w", err))
	}
	if !hasNew {
		logger.Debug("Account has no new supply")
		return NotApplicable()
	}

	if len(batch.Products) == 0 {
		logger.Warn("Completed batch has no products")
		return markDone(ctx, logger, token, VacuousSuccess())
	}

	for _, product := range batch.Products {
		if len(product.Orders) == 0 {
			logger.Critical("Batch product has no orders", "productId", product.ProductID)
			continue
		}
		if res := a.allocateProduct(ctx, logger, accountID, product); res != nil {
			return *res
		}
	}

	return markDone(ctx, logger, token, Success())
}

// allocateProduct packages the orders of one batch product line. A non-nil Result
// aborts the invocation.
func (a *PackageAllocator) allocateProduct(ctx context.Context, logger *logging.Logger, accountID string, product domain.BatchProduct) *Result {
	supplyID, err := a.openSupply.Find(ctx, accountID)
	if err != nil {
		res := Failure(ErrPersistenceFailure, fmt.Errorf("find open supply: %w", err))
		return &res
	}
	if supplyID == "" {
		logger.Critical("Open supply not found")
		res := Failure(ErrDataIntegrityGap, fmt.Errorf("account %s has no open supply", accountID))
		return &res
	}

	inBatch := NewPackageCommand{AccountID: accountID, SupplyID: supplyID}
	taken := make(map[string]bool)

	for _, ref := range product.Orders {
		order, err := a.orders.FindCurrent(ctx, ref.OrderID)
		if err != nil {
			res := Failure(ErrPersistenceFailure, fmt.Errorf("load order %s: %w", ref.OrderID, err))
			return &res
		}
		if order == nil {
			logger.Critical("Order snapshot not found", "orderId", ref.OrderID)
			continue
		}
		if !order.ReadyForPackaging(a.gate.config.ReadyForPackagingStatus, a.gate.config.FBSDeliveryType) {
			logger.Debug("Order not ready for packaging",
				"orderId", order.OrderID,
				"status", order.Status,
				"deliveryType", order.DeliveryType,
			)
			continue
		}

		for _, line := range order.Lines {
			key := domain.LineKey(order.OrderID, line.LineID)
			if taken[key] {
				continue
			}
			packaged, err := a.lines.Exists(ctx, order.OrderID, line.LineID)
			if err != nil {
				res := Failure(ErrPersistenceFailure, fmt.Errorf("check order line %s: %w", key, err))
				return &res
			}
			if packaged {
				continue
			}

			entry := domain.PackageOrderLine{
				OrderID:     order.OrderID,
				OrderLineID: line.LineID,
				Sort:        a.now().Unix(),
			}

			if line.Matches(product.ProductSignature) {
				inBatch.Lines = append(inBatch.Lines, entry)
				taken[key] = true
				continue
			}

			outOfBatch := NewPackageCommand{
				AccountID:  accountID,
				SupplyID:   supplyID,
				OutOfBatch: true,
				Lines:      []domain.PackageOrderLine{entry},
			}
			if res := a.persist(ctx, logger, outOfBatch); res != nil {
				return res
			}
		}

		a.hide(ctx, logger, order.OrderID)
	}

	if len(inBatch.Lines) == 0 {
		return nil
	}
	return a.persist(ctx, logger, inBatch)
}

func (a *PackageAllocator) persist(ctx context.Context, logger *logging.Logger, cmd NewPackageCommand) *Result {
	pkg, err := a.command.Handle(ctx, cmd)
	if err == nil && pkg == nil {
		err = errors.New("package command returned no package")
	}
	if err != nil {
		logger.WithError(err).Critical("Failed to create package",
			"supplyId", cmd.SupplyID,
			"outOfBatch", cmd.OutOfBatch,
		)
		res := Failure(ErrPersistenceFailure, err)
		return &res
	}

	logger.Info("Package created",
		"packageId", pkg.PackageID,
		"supplyId", pkg.SupplyID,
		"outOfBatch", pkg.OutOfBatch,
		"lineCount", len(pkg.Lines),
	)
	return nil
}

// hide tells viewers the order left the packaging queue. Delivery is best effort.
func (a *PackageAllocator) hide(ctx context.Context, logger *logging.Logger, orderID string) {
	err := a.notifier.Send(ctx, domain.Notification{
		Event:      domain.NotificationHide,
		Identifier: orderID,
		Profile:    false,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to send hide notification", "orderId", orderID)
	}
}
