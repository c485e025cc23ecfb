package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for a single source
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new CloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *CloudEvent {
	return &CloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}
}

// CreateSupplyOpenedEvent creates a SupplyOpened event
func (f *EventFactory) CreateSupplyOpenedEvent(ctx context.Context, data SupplyOpenedData) *CloudEvent {
	event := f.CreateEvent(ctx, SupplyOpened, "supply/"+data.SupplyID, data)
	event.AccountID = data.AccountID
	return event
}

// CreatePackageCreatedEvent creates a PackageCreated event
func (f *EventFactory) CreatePackageCreatedEvent(ctx context.Context, data PackageCreatedData) *CloudEvent {
	event := f.CreateEvent(ctx, PackageCreated, "package/"+data.PackageID, data)
	event.AccountID = data.AccountID
	return event
}
