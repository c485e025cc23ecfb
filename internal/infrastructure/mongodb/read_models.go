package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fbs-supply-service/internal/domain"
)

// Projection collections written by the upstream services
const (
	batchSnapshotsCollection   = "batch_snapshots"
	batchInvariablesCollection = "batch_invariables"
	orderSnapshotsCollection   = "order_snapshots"
)

// BatchReadModel reads batch projections. It implements both
// domain.BatchEventReader and domain.BatchInvariableReader.
type BatchReadModel struct {
	snapshots   *mongo.Collection
	invariables *mongo.Collection
}

// NewBatchReadModel creates a new BatchReadModel
func NewBatchReadModel(db *mongo.Database) *BatchReadModel {
	return &BatchReadModel{
		snapshots:   db.Collection(batchSnapshotsCollection),
		invariables: db.Collection(batchInvariablesCollection),
	}
}

// FindCurrent returns the latest snapshot of the batch
func (m *BatchReadModel) FindCurrent(ctx context.Context, batchID string) (*domain.BatchSnapshot, error) {
	var snapshot domain.BatchSnapshot
	if err := findLatest(ctx, m.snapshots, bson.M{"batchId": batchID}, &snapshot); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

// Find returns the invariable facts of the batch
func (m *BatchReadModel) Find(ctx context.Context, batchID string) (*domain.BatchInvariable, error) {
	var invariable domain.BatchInvariable
	if err := m.invariables.FindOne(ctx, bson.M{"batchId": batchID}).Decode(&invariable); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &invariable, nil
}

// OrderReadModel reads order projections
type OrderReadModel struct {
	snapshots *mongo.Collection
}

// NewOrderReadModel creates a new OrderReadModel
func NewOrderReadModel(db *mongo.Database) *OrderReadModel {
	return &OrderReadModel{snapshots: db.Collection(orderSnapshotsCollection)}
}

// FindCurrent returns the latest snapshot of the order
func (m *OrderReadModel) FindCurrent(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
	var snapshot domain.OrderSnapshot
	if err := findLatest(ctx, m.snapshots, bson.M{"orderId": orderID}, &snapshot); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

// findLatest decodes the most recently updated document matching filter
func findLatest(ctx context.Context, coll *mongo.Collection, filter bson.M, v interface{}) error {
	opts := options.FindOne().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	return coll.FindOne(ctx, filter, opts).Decode(v)
}
