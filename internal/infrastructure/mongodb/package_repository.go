package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/fbs-supply-service/internal/domain"
	"github.com/wms-platform/fbs-supply-service/pkg/cloudevents"
	"github.com/wms-platform/fbs-supply-service/pkg/kafka"
	"github.com/wms-platform/fbs-supply-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/fbs-supply-service/pkg/outbox/mongodb"
)

const packagesCollection = "packages"

// PackageRepository implements domain.PackageRepository using MongoDB
type PackageRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

// NewPackageRepository creates a new PackageRepository
func NewPackageRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *PackageRepository {
	return &PackageRepository{
		collection:   db.Collection(packagesCollection),
		db:           db,
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
	}
}

// EnsureIndexes creates the package indexes. lineKeys is a multikey index, so
// uniqueness holds per order line across all packages.
func (r *PackageRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "packageId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_package_id"),
		},
		{
			Keys:    bson.D{{Key: "lineKeys", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_line_keys"),
		},
		{
			Keys: bson.D{
				{Key: "supplyId", Value: 1},
				{Key: "createdAt", Value: 1},
			},
			Options: options.Index().SetName("idx_supply_created"),
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create package indexes: %w", err)
	}
	return nil
}

// Save inserts the package with its domain events in a single transaction
func (r *PackageRepository) Save(ctx context.Context, pkg *domain.Package) error {
	events, err := r.outboxEvents(ctx, pkg)
	if err != nil {
		return err
	}

	err = saveWithOutbox(ctx, r.db, r.outboxRepo, func(sessCtx mongo.SessionContext) error {
		if _, err := r.collection.InsertOne(sessCtx, pkg); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrPackageLineTaken
			}
			return fmt.Errorf("failed to insert package: %w", err)
		}
		return nil
	}, events)
	if err != nil {
		if errors.Is(err, domain.ErrPackageLineTaken) {
			return domain.ErrPackageLineTaken
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	pkg.ClearDomainEvents()
	return nil
}

func (r *PackageRepository) outboxEvents(ctx context.Context, pkg *domain.Package) ([]*outbox.OutboxEvent, error) {
	var events []*outbox.OutboxEvent
	for _, event := range pkg.GetDomainEvents() {
		e, ok := event.(*domain.PackageCreatedEvent)
		if !ok {
			continue
		}

		lines := make([]cloudevents.PackageLineData, len(e.Lines))
		for i, line := range e.Lines {
			lines[i] = cloudevents.PackageLineData{
				OrderID:     line.OrderID,
				OrderLineID: line.OrderLineID,
				Sort:        line.Sort,
			}
		}

		cloudEvent := r.eventFactory.CreatePackageCreatedEvent(ctx, cloudevents.PackageCreatedData{
			PackageID:  e.PackageID,
			AccountID:  e.AccountID,
			SupplyID:   e.SupplyID,
			OutOfBatch: e.OutOfBatch,
			Lines:      lines,
		})
		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(pkg.PackageID, "Package", kafka.Topics.PackagesEvents, cloudEvent)
		if err != nil {
			return nil, fmt.Errorf("failed to create outbox event: %w", err)
		}
		events = append(events, outboxEvent)
	}
	return events, nil
}

// Exists reports whether the order line is in any package
func (r *PackageRepository) Exists(ctx context.Context, orderID, orderLineID string) (bool, error) {
	filter := bson.M{"lineKeys": domain.LineKey(orderID, orderLineID)}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindBySupply returns the packages of a supply in creation order
func (r *PackageRepository) FindBySupply(ctx context.Context, supplyID string) ([]*domain.Package, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"supplyId": supplyID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var packages []*domain.Package
	if err := cursor.All(ctx, &packages); err != nil {
		return nil, err
	}
	return packages, nil
}
