package idempotency

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompletedOperation records that a keyed unit of work finished with all of its side
// effects committed. Presence of the record is the only state; there is no in-progress phase.
type CompletedOperation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Namespace   string             `bson:"namespace"`
	Key         string             `bson:"key"`
	ServiceID   string             `bson:"serviceId"`
	CompletedAt time.Time          `bson:"completedAt"`
	ExpiresAt   time.Time          `bson:"expiresAt"` // TTL index
}
