package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	sharedmongo "github.com/wms-platform/fbs-supply-service/pkg/mongodb"
	"github.com/wms-platform/fbs-supply-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/fbs-supply-service/pkg/outbox/mongodb"
)

// saveWithOutbox runs write and stores the outbox events in one transaction
func saveWithOutbox(
	ctx context.Context,
	db *mongo.Database,
	outboxRepo *outboxMongo.OutboxRepository,
	write func(sessCtx mongo.SessionContext) error,
	events []*outbox.OutboxEvent,
) error {
	return sharedmongo.WithTransaction(ctx, db, func(sessCtx mongo.SessionContext) error {
		if err := write(sessCtx); err != nil {
			return err
		}
		if len(events) > 0 {
			if err := outboxRepo.SaveAll(sessCtx, events); err != nil {
				return fmt.Errorf("failed to save outbox events: %w", err)
			}
		}
		return nil
	})
}
