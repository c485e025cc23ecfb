package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fbs-supply-service/internal/domain"
	"github.com/wms-platform/fbs-supply-service/pkg/idempotency"
	testutil "github.com/wms-platform/fbs-supply-service/pkg/testing"
)

const (
	testNamespace  = "fbs-supply-test"
	fbsDelivery    = "fbs"
	readyStatus    = "ready_for_packaging"
	testAccountID  = "acc-1"
	testBatchID    = "batch-1"
	testEventID    = "evt-1"
	criticalLevel  = "CRITICAL"
	fixedUnixStamp = int64(1760000000)
)

var testConfig = HandlerConfig{
	Namespace:               testNamespace,
	FBSDeliveryType:         fbsDelivery,
	ReadyForPackagingStatus: readyStatus,
}

func strPtr(s string) *string { return &s }

type fakeBatches map[string]*domain.BatchSnapshot

func (f fakeBatches) FindCurrent(_ context.Context, batchID string) (*domain.BatchSnapshot, error) {
	return f[batchID], nil
}

type fakeInvariables map[string]*domain.BatchInvariable

func (f fakeInvariables) Find(_ context.Context, batchID string) (*domain.BatchInvariable, error) {
	return f[batchID], nil
}

type fakeOrders map[string]*domain.OrderSnapshot

func (f fakeOrders) FindCurrent(_ context.Context, orderID string) (*domain.OrderSnapshot, error) {
	return f[orderID], nil
}

// memorySupplies enforces the single open slot per account the way the unique
// partial index does.
type memorySupplies struct {
	mu       sync.Mutex
	supplies []*domain.Supply
}

func (m *memorySupplies) Save(_ context.Context, supply *domain.Supply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.supplies {
		if s.AccountID == supply.AccountID && s.OpenSlot {
			return domain.ErrSupplyAlreadyOpen
		}
	}
	m.supplies = append(m.supplies, supply)
	return nil
}

func (m *memorySupplies) find(accountID string, match func(domain.SupplyStatus) bool) *domain.Supply {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.supplies {
		if s.AccountID == accountID && match(s.Status) {
			return s
		}
	}
	return nil
}

func (m *memorySupplies) ExistsNewOrOpen(_ context.Context, accountID string) (bool, error) {
	return m.find(accountID, domain.SupplyStatus.HoldsOpenSlot) != nil, nil
}

func (m *memorySupplies) ExistsNew(_ context.Context, accountID string) (bool, error) {
	return m.find(accountID, func(s domain.SupplyStatus) bool { return s == domain.SupplyStatusNew }) != nil, nil
}

func (m *memorySupplies) Find(_ context.Context, accountID string) (string, error) {
	if s := m.find(accountID, domain.SupplyStatus.HoldsOpenSlot); s != nil {
		return s.SupplyID, nil
	}
	return "", nil
}

func (m *memorySupplies) FindOpenByAccount(_ context.Context, accountID string) (*domain.Supply, error) {
	return m.find(accountID, domain.SupplyStatus.HoldsOpenSlot), nil
}

func (m *memorySupplies) openCount(accountID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.supplies {
		if s.AccountID == accountID && s.OpenSlot {
			n++
		}
	}
	return n
}

// memoryPackages enforces that an order line is packaged at most once
type memoryPackages struct {
	mu       sync.Mutex
	packages []*domain.Package
	keys     map[string]bool
	failWhen func(*domain.Package) error
}

func newMemoryPackages() *memoryPackages {
	return &memoryPackages{keys: make(map[string]bool)}
}

func (m *memoryPackages) Save(_ context.Context, pkg *domain.Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWhen != nil {
		if err := m.failWhen(pkg); err != nil {
			return err
		}
	}
	for _, key := range pkg.LineKeys {
		if m.keys[key] {
			return domain.ErrPackageLineTaken
		}
	}
	for _, key := range pkg.LineKeys {
		m.keys[key] = true
	}
	m.packages = append(m.packages, pkg)
	return nil
}

func (m *memoryPackages) Exists(_ context.Context, orderID, orderLineID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[domain.LineKey(orderID, orderLineID)], nil
}

func (m *memoryPackages) FindBySupply(_ context.Context, supplyID string) ([]*domain.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Package
	for _, p := range m.packages {
		if p.SupplyID == supplyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryPackages) all() []*domain.Package {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Package(nil), m.packages...)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, notification domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return n.err
}

// world wires both handlers over in-memory collaborators
type world struct {
	batches     fakeBatches
	invariables fakeInvariables
	orders      fakeOrders
	supplies    *memorySupplies
	packages    *memoryPackages
	notifier    *recordingNotifier
	dedup       *idempotency.Guard
	logs        *testutil.LogBuffer
	opener      *SupplyOpener
	allocator   *PackageAllocator
}

func newWorld(t *testing.T) *world {
	t.Helper()
	logger, logs := testutil.NewTestLogger()

	w := &world{
		batches:     fakeBatches{},
		invariables: fakeInvariables{},
		orders:      fakeOrders{},
		supplies:    &memorySupplies{},
		packages:    newMemoryPackages(),
		notifier:    &recordingNotifier{},
		dedup:       idempotency.NewGuard(idempotency.DefaultGuardConfig(testNamespace, idempotency.NewMemoryOperationRepository())),
		logs:        logs,
	}

	w.opener = NewSupplyOpener(testConfig, SupplyOpenerDeps{
		Dedup:       w.dedup,
		Batches:     w.batches,
		Invariables: w.invariables,
		Supplies:    w.supplies,
		Command:     NewOpenSupplyHandler(w.supplies, logger, nil),
		Logger:      logger,
	})
	w.allocator = NewPackageAllocator(testConfig, PackageAllocatorDeps{
		Dedup:       w.dedup,
		Batches:     w.batches,
		Invariables: w.invariables,
		Supplies:    w.supplies,
		OpenSupply:  w.supplies,
		Orders:      w.orders,
		Lines:       w.packages,
		Command:     NewCreatePackageHandler(w.packages, logger, nil),
		Notifier:    w.notifier,
		Logger:      logger,
	})
	w.allocator.now = func() time.Time { return time.Unix(fixedUnixStamp, 0) }

	return w
}

func (w *world) completedBatch(batchID, accountID string, products ...domain.BatchProduct) {
	w.batches[batchID] = &domain.BatchSnapshot{
		BatchID:           batchID,
		Status:            domain.BatchStatusCompleted,
		CompletionChannel: fbsDelivery,
		Products:          products,
	}
	w.invariables[batchID] = &domain.BatchInvariable{BatchID: batchID, AccountID: accountID}
}

func (w *world) readyOrder(orderID string, lines ...domain.OrderProductLine) {
	w.orders[orderID] = &domain.OrderSnapshot{
		OrderID:      orderID,
		Status:       readyStatus,
		DeliveryType: fbsDelivery,
		Lines:        lines,
	}
}

func (w *world) openSupply(t *testing.T, accountID string) *domain.Supply {
	t.Helper()
	supply, err := domain.NewSupply(accountID)
	require.NoError(t, err)
	require.NoError(t, w.supplies.Save(context.Background(), supply))
	return supply
}

func (w *world) isDone(t *testing.T, batchID, handler string) bool {
	t.Helper()
	done, err := w.dedup.Begin(testNamespace, batchID, handler).IsDone(context.Background())
	require.NoError(t, err)
	return done
}

func product(productID string, orderIDs ...string) domain.BatchProduct {
	p := domain.BatchProduct{ProductSignature: domain.ProductSignature{ProductID: productID}}
	for _, id := range orderIDs {
		p.Orders = append(p.Orders, domain.BatchOrderRef{OrderID: id})
	}
	return p
}

func line(lineID, productID string) domain.OrderProductLine {
	return domain.OrderProductLine{LineID: lineID, ProductSignature: domain.ProductSignature{ProductID: productID}}
}

func batchEvent() BatchEvent {
	return BatchEvent{EventID: testEventID, BatchID: testBatchID}
}
