package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fbs-supply-service/internal/domain"
)

func TestPackageAllocatorSingleProductHappyPath(t *testing.T) {
	w := newWorld(t)
	supply := w.openSupply(t, testAccountID)
	w.completedBatch(testBatchID, testAccountID, product("A", "order-1"))
	w.readyOrder("order-1", line("l-1", "A"))

	res := w.allocator.Handle(context.Background(), batchEvent())

	require.Equal(t, StatusSuccess, res.Status, "%v", res.Err)
	packages := w.packages.all()
	require.Len(t, packages, 1)
	assert.Equal(t, supply.SupplyID, packages[0].SupplyID)
	assert.Equal(t, testAccountID, packages[0].AccountID)
	assert.False(t, packages[0].OutOfBatch)
	assert.Equal(t, []domain.PackageOrderLine{
		{OrderID: "order-1", OrderLineID: "l-1", Sort: fixedUnixStamp},
	}, packages[0].Lines)

	assert.Equal(t, []domain.Notification{
		{Event: domain.NotificationHide, Identifier: "order-1", Profile: false},
	}, w.notifier.sent)
	assert.True(t, w.isDone(t, testBatchID, PackageAllocatorName))
	assert.Equal(t, 1, w.logs.Count("INFO", "Package created"))
}

func TestPackageAllocatorSplitsOutOfBatchLines(t *testing.T) {
	w := newWorld(t)
	supply := w.openSupply(t, testAccountID)
	w.completedBatch(testBatchID, testAccountID, product("A", "order-1"))
	w.readyOrder("order-1", line("l-1", "A"), line("l-2", "B"))

	res := w.allocator.Handle(context.Background(), batchEvent())

	require.Equal(t, StatusSuccess, res.Status, "%v", res.Err)
	packages := w.packages.all()
	require.Len(t, packages, 2)

	outOfBatch, inBatch := packages[0], packages[1]
	assert.True(t, outOfBatch.OutOfBatch)
	assert.Equal(t, []string{"order-1:l-2"}, outOfBatch.LineKeys)
	assert.False(t, inBatch.OutOfBatch)
	assert.Equal(t, []string{"order-1:l-1"}, inBatch.LineKeys)
	assert.Equal(t, supply.SupplyID, outOfBatch.SupplyID)
	assert.Equal(t, supply.SupplyID, inBatch.SupplyID)
	assert.Len(t, w.notifier.sent, 1)
}

func TestPackageAllocatorEachForeignLineGetsOwnPackage(t *testing.T) {
	w := newWorld(t)
	w.openSupply(t, testAccountID)
	w.completedBatch(testBatchID, testAccountID, product("A", "order-1"))
	w.readyOrder("order-1", line("l-1", "B"), line("l-2", "C"))

	res := w.allocator.Handle(context.Background(), batchEvent())

	require.Equal(t, StatusSuccess, res.Status)
	packages := w.packages.all()
	require.Len(t, packages, 2)
	for _, p := range packages {
		assert.True(t, p.OutOfBatch)
		assert.Len(t, p.Lines, 1)
	}
}

func TestPackageAllocatorAbsentOptionalIdIsNotWildcard(t *testing.T) {
	w := newWorld(t)
	w.openSupply(t, testAccountID)
	w.completedBatch(testBatchID, testAccountID, product("X", "order-1"))
	w.readyOrder("order-1", domain.OrderProductLine{
		LineID:           "l-1",
		ProductSignature: domain.ProductSignature{ProductID: "X", VariationID: strPtr("V")},
	})

	res := w.allocator.Handle(context.Background(), batchEvent())

	require.Equal(t, StatusSuccess, res.Status)
	packages := w.packages.all()
	require.Len(t, packages, 1)
	assert.True(t, packages[0].OutOfBatch)
}

func TestPackageAllocatorSkipsOrdersNotReady(t *testing.T) {
	w := newWorld(t)
	w.openSupply(t, testAccountID)
	w.completedBatch(testBatchID, testAccountID, product("A", "order-1", "order-2", "order-3"))
	w.readyOrder("order-1", line("l-1", "A"))
	w.orders["order-2"] = &domain.OrderSnapshot{OrderID: "order-2", Status: "new", DeliveryType: fbsDelivery,
		Lines: []domain.OrderProductLine{line("l-1", "A")}}
	w.orders["order-3"] = &domain.OrderSnapshot{OrderID: "order-3", Status: readyStatus, DeliveryType: "fbo",
		Lines: []domain.OrderProductLine{line("l-1", "A")}}

	res := w.allocator.Handle(context.Background(), batchEvent())

	require.Equal(t, StatusSuccess, res.Status)
	packages := w.packages.all()
	require.Len(t, packages, 1)
	assert.Equal(t, []string{"order-1:l-1"}, packages[0].LineKeys)
	require.Len(t, w.notifier.sent, 1)
	assert.Equal(t, "order-1", w.notifier.sent[0].Identifier)
}

func TestPackageAllocatorEmptyBatchIsVacuous(t *testing.T) {
	w := newWorld(t)
	w.openSupply(t, testAccountID)
	w.completedBatch(testBatchID, testAccountID)

	res := w.allocator.Handle(context.Background(), batchEvent())

	assert.Equal(t, StatusVacuousSuccess, res.Status)
	assert.Empty(t, w.packages.all())
	assert.True(t, w.isDone(t, testBatchID, PackageAllocatorName))
	assert.Equal(t, 1, w.logs.Count("WARN", "Completed batch has no products"))
}

func TestPackageAllocatorWithoutNewSupplyIsNotApplicable(t *testing.T) {
	w := newWorld(t)
	supply := w.openSupply(t, testAccountID)
	supply.Status = domain.SupplyStatusOpen
	w.completedBatch(testBatchID, testAccountID, product("A", "order-1"))
	w.readyOrder("order-1", line("l-1", "A"))

	res := w.allocator.Handle(context.Background(), batchEvent())

	assert.Equal(t, StatusNotApplicable, res.Status)
	assert.Empty(t, w.packages.all())
	assert.False(t, w.isDone(t, testBatchID, PackageAllocatorName))
}

func TestPackageAllocatorNotCompletedBatch(t *testing.T) {
	w := newWorld(t)
	w.openSupply(t, testAccountID)
	w.completedBatch(testBatchID, testAccountID, product("A", "order-1"))
	w.batches[testBatchID].Status = domain.BatchStatusInProgress
	w.readyOrder("order-1", line("l-1", "A"))

	res := w.allocator.Handle(context.Background(), batchEvent())

	assert.Equal(t, StatusNotApplicable, res.Status)
	assert.Empty(t, w.packages.all())
	assert.Empty(t, w.notifier.sent)
	assert.False(t, w.isDone(t, testBatchID, PackageAllocatorName))
}

func TestPackageAllocatorSkipsPackagedLines(t *testing.T) {
	w := newWorld(t)
	supply := w.openSupply(t, testAccountID)
	w.completedBatch(testBatchID, testAccountID, product("A", "order-1"))
	w.readyOrder("order-1", line("l-1", "A"), line("l-2", "A"))

	existing, err := domain.NewPackage(testAccountID, supply.SupplyID, false,
		[]domain.PackageOrderLine{{OrderID: "order-1", OrderLineID: "l-1"}})
	require.NoError(t, err)
	require.NoError(t, w.packages.Save(context.Background(), existing))

	res := w.allocator.Handle(context.Background(), batchEvent())

	require.Equal(t, StatusSuccess, res.Status)
	packages := w.packages.all()
	require.Len(t, packages, 2)
	assert.Equal(t, []string{"order-1:l-2"}, packages[1].LineKeys)
}

func TestPackageAllocatorHandlesBatchOnce(t *testing.T) {
	w := newWorld(t)
	w.openSupply(t, testAccountID)
	w.completedBatch(testBatchID, testAccountID, product("A", "order-1"))
	w.readyOrder("order-1", line("l-1", "A"), line("l-2", "B"))

	first := w.allocator.Handle(context.Background(), batchEvent())
	second := w.allocator.Handle(context.Background(), batchEvent())
	third := w.allocator.Handle(context.Background(), BatchEvent{EventID: "evt-2", BatchID: testBatchID})

	assert.Equal(t, StatusSuccess, first.Status)
	assert.Equal(t, StatusAlreadyDone, second.Status)
	assert.Equal(t, StatusAlreadyDone, third.Status)
	assert.Len(t, w.packages.all(), 2)
	assert.Len(t, w.notifier.sent, 1)
}

func TestPackageAllocatorMissingOpenSupplyId(t *testing.T) {
	w := newWorld(t)
	w.completedBatch(testBatchID, testAccountID, product("A", "order-1"))
	w.readyOrder("order-1", line("l-1", "A"))

	allocator := NewPackageAllocator(testConfig, PackageAllocatorDeps{
		Dedup:       w.dedup,
		Batches:     w.batches,
		Invariables: w.invariables,
		Supplies:    alwaysNewSupply{},
		OpenSupply:  w.supplies,
		Orders:      w.orders,
		Lines:       w.packages,
		Command:     NewCreatePackageHandler(w.packages, w.allocator.logger, nil),
		Notifier:    w.notifier,
		Logger:      w.allocator.logger,
	})

	res := allocator.Handle(context.Background(), batchEvent())

	require.Equal(t, StatusFailure, res.Status)
	assert.ErrorIs(t, res.Err, ErrDataIntegrityGap)
	assert.False(t, w.isDone(t, testBatchID, PackageAllocatorName))
	assert.Equal(t, 1, w.logs.Count(criticalLevel, "Open supply not found"))
}

type alwaysNewSupply struct{}

func (alwaysNewSupply) ExistsNewOrOpen(context.Context, string) (bool, error) { return true, nil }
func (alwaysNewSupply) ExistsNew(context.Context, string) (bool, error)       { return true, nil }

func TestPackageAllocatorOutOfBatchFailureAborts(t *testing.T) {
	w := newWorld(t)
	w.openSupply(t, testAccountID)
	w.completedBatch(testBatchID, testAccountID, product("A", "order-1", "order-2"))
	w.readyOrder("order-1", line("l-1", "A"), line("l-2", "B"))
	w.readyOrder("order-2", line("l-1", "A"))
	w.packages.failWhen = func(p *domain.Package) error {
		if p.OutOfBatch {
			return errors.New("write concern timeout")
		}
		return nil
	}

	res := w.allocator.Handle(context.Background(), batchEvent())

	require.Equal(t, StatusFailure, res.Status)
	assert.ErrorIs(t, res.Err, ErrPersistenceFailure)
	assert.Empty(t, w.packages.all())
	assert.Empty(t, w.notifier.sent)
	assert.False(t, w.isDone(t, testBatchID, PackageAllocatorName))
	assert.Equal(t, 1, w.logs.Count(criticalLevel, "Failed to create package"))
}

func TestPackageAllocatorRetryAfterFailureSkipsCommittedLines(t *testing.T) {
	w := newWorld(t)
	w.openSupply(t, testAccountID)
	w.completedBatch(testBatchID, testAccountID, product("A", "order-1"))
	w.readyOrder("order-1", line("l-1", "A"), line("l-2", "B"))
	w.packages.failWhen = func(p *domain.Package) error {
		if !p.OutOfBatch {
			return errors.New("primary stepped down")
		}
		return nil
	}

	first := w.allocator.Handle(context.Background(), batchEvent())
	require.Equal(t, StatusFailure, first.Status)
	require.Len(t, w.packages.all(), 1)

	w.packages.failWhen = nil
	second := w.allocator.Handle(context.Background(), batchEvent())

	require.Equal(t, StatusSuccess, second.Status)
	packages := w.packages.all()
	require.Len(t, packages, 2)
	assert.Equal(t, []string{"order-1:l-2"}, packages[0].LineKeys)
	assert.Equal(t, []string{"order-1:l-1"}, packages[1].LineKeys)
}

func TestPackageAllocatorSkipsMissingOrdersAndEmptyLines(t *testing.T) {
	w := newWorld(t)
	w.openSupply(t, testAccountID)
	w.completedBatch(testBatchID, testAccountID,
		product("A"),
		product("B", "ghost-order", "order-1"),
	)
	w.readyOrder("order-1", line("l-1", "B"))

	res := w.allocator.Handle(context.Background(), batchEvent())

	require.Equal(t, StatusSuccess, res.Status)
	assert.Len(t, w.packages.all(), 1)
	assert.Equal(t, 1, w.logs.Count(criticalLevel, "Batch product has no orders"))
	assert.Equal(t, 1, w.logs.Count(criticalLevel, "Order snapshot not found"))
}

func TestPackageAllocatorNotificationFailureIsIgnored(t *testing.T) {
	w := newWorld(t)
	w.openSupply(t, testAccountID)
	w.completedBatch(testBatchID, testAccountID, product("A", "order-1"))
	w.readyOrder("order-1", line("l-1", "A"))
	w.notifier.err = errors.New("redis unavailable")

	res := w.allocator.Handle(context.Background(), batchEvent())

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Len(t, w.packages.all(), 1)
	assert.Equal(t, 1, w.logs.Count("WARN", "Failed to send hide notification"))
}

func TestPackageAllocatorDuplicateOrderRefPackagesLineOnce(t *testing.T) {
	w := newWorld(t)
	w.openSupply(t, testAccountID)
	w.completedBatch(testBatchID, testAccountID, product("A", "order-1", "order-1"))
	w.readyOrder("order-1", line("l-1", "A"))

	res := w.allocator.Handle(context.Background(), batchEvent())

	require.Equal(t, StatusSuccess, res.Status)
	packages := w.packages.all()
	require.Len(t, packages, 1)
	assert.Len(t, packages[0].Lines, 1)
}
