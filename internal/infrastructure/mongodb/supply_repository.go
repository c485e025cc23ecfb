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

const suppliesCollection = "supplies"

// SupplyRepository implements domain.SupplyRepository using MongoDB
type SupplyRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

// NewSupplyRepository creates a new SupplyRepository
func NewSupplyRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *SupplyRepository {
	return &SupplyRepository{
		collection:   db.Collection(suppliesCollection),
		db:           db,
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
	}
}

// EnsureIndexes creates the supply indexes. The partial unique index on
// accountId is what keeps an account to a single new or open supply.
func (r *SupplyRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "supplyId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_supply_id"),
		},
		{
			Keys: bson.D{{Key: "accountId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"openSlot": true}).
				SetName("idx_account_open_slot"),
		},
		{
			Keys: bson.D{
				{Key: "accountId", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("idx_account_status"),
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create supply indexes: %w", err)
	}
	return r.outboxRepo.EnsureIndexes(ctx)
}

// Save inserts the supply with its domain events in a single transaction
func (r *SupplyRepository) Save(ctx context.Context, supply *domain.Supply) error {
	events, err := r.outboxEvents(ctx, supply)
	if err != nil {
		return err
	}

	err = saveWithOutbox(ctx, r.db, r.outboxRepo, func(sessCtx mongo.SessionContext) error {
		if _, err := r.collection.InsertOne(sessCtx, supply); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrSupplyAlreadyOpen
			}
			return fmt.Errorf("failed to insert supply: %w", err)
		}
		return nil
	}, events)
	if err != nil {
		if errors.Is(err, domain.ErrSupplyAlreadyOpen) {
			return domain.ErrSupplyAlreadyOpen
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	supply.ClearDomainEvents()
	return nil
}

func (r *SupplyRepository) outboxEvents(ctx context.Context, supply *domain.Supply) ([]*outbox.OutboxEvent, error) {
	var events []*outbox.OutboxEvent
	for _, event := range supply.GetDomainEvents() {
		e, ok := event.(*domain.SupplyOpenedEvent)
		if !ok {
			continue
		}

		cloudEvent := r.eventFactory.CreateSupplyOpenedEvent(ctx, cloudevents.SupplyOpenedData{
			SupplyID:  e.SupplyID,
			AccountID: e.AccountID,
			Status:    e.Status,
			CreatedAt: e.OpenedAt,
		})
		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(supply.SupplyID, "Supply", kafka.Topics.SupplyEvents, cloudEvent)
		if err != nil {
			return nil, fmt.Errorf("failed to create outbox event: %w", err)
		}
		events = append(events, outboxEvent)
	}
	return events, nil
}

func openStatuses() bson.M {
	return bson.M{"$in": []domain.SupplyStatus{domain.SupplyStatusNew, domain.SupplyStatusOpen}}
}

func (r *SupplyRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsNewOrOpen reports whether the account holds a new or open supply
func (r *SupplyRepository) ExistsNewOrOpen(ctx context.Context, accountID string) (bool, error) {
	return r.exists(ctx, bson.M{"accountId": accountID, "status": openStatuses()})
}

// ExistsNew reports whether the account holds a new supply
func (r *SupplyRepository) ExistsNew(ctx context.Context, accountID string) (bool, error) {
	return r.exists(ctx, bson.M{"accountId": accountID, "status": domain.SupplyStatusNew})
}

// Find returns the id of the account's new or open supply, or "" when there is none
func (r *SupplyRepository) Find(ctx context.Context, accountID string) (string, error) {
	supply, err := r.FindOpenByAccount(ctx, accountID)
	if err != nil || supply == nil {
		return "", err
	}
	return supply.SupplyID, nil
}

// FindOpenByAccount returns the account's new or open supply
func (r *SupplyRepository) FindOpenByAccount(ctx context.Context, accountID string) (*domain.Supply, error) {
	var supply domain.Supply
	filter := bson.M{"accountId": accountID, "status": openStatuses()}

	err := r.collection.FindOne(ctx, filter).Decode(&supply)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &supply, nil
}
