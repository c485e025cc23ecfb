package idempotency

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const operationsCollection = "operations"

// MongoOperationRepository implements OperationRepository using MongoDB
type MongoOperationRepository struct {
	collection *mongo.Collection
}

// NewMongoOperationRepository creates a new MongoDB-backed operation repository
func NewMongoOperationRepository(db *mongo.Database) *MongoOperationRepository {
	return &MongoOperationRepository{
		collection: db.Collection(operationsCollection),
	}
}

// IsCompleted checks whether the operation has been recorded
func (r *MongoOperationRepository) IsCompleted(ctx context.Context, namespace, key string) (bool, error) {
	filter := bson.M{
		"namespace": namespace,
		"key":       key,
	}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// MarkCompleted inserts the operation marker
func (r *MongoOperationRepository) MarkCompleted(ctx context.Context, op *CompletedOperation) error {
	_, err := r.collection.InsertOne(ctx, op)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrOperationAlreadyCompleted
		}
		return err
	}
	return nil
}

// EnsureIndexes ensures that all required indexes are created
func (r *MongoOperationRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "namespace", Value: 1},
				{Key: "key", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_namespace_key"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_ttl"),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
