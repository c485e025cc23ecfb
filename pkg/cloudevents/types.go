package cloudevents

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types consumed and produced by the supply service
const (
	// Consumed
	BatchStateChanged  = "fbs.batch.state-changed"
	OrderChangedPrefix = "fbs.order."

	// Produced
	SupplyOpened   = "fbs.supply.opened"
	PackageCreated = "fbs.package.created"
)

// Source constants for event sources
const (
	SourceManufacturing = "/fbs/manufacturing-service"
	SourceOrders        = "/fbs/order-service"
	SourceSupply        = "/fbs/supply-service"
)

// Extension attribute names carried as ce-* Kafka headers
const (
	ExtCorrelationID = "fbscorrelationid"
	ExtWorkflowID    = "fbsworkflowid"
	ExtAccountID     = "fbsaccountid"
	ExtTraceParent   = "traceparent"
	ExtTraceState    = "tracestate"
)

// CloudEvent represents a CloudEvents v1.0 event on the fulfillment bus
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	ID              string          `json:"id"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            interface{}     `json:"data"`
	RawData         json.RawMessage `json:"-"`

	CorrelationID string `json:"fbscorrelationid,omitempty"`
	WorkflowID    string `json:"fbsworkflowid,omitempty"`
	AccountID     string `json:"fbsaccountid,omitempty"`

	// W3C trace context
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// UnmarshalJSON keeps the raw data payload so consumers can decode it into their own type
func (e *CloudEvent) UnmarshalJSON(b []byte) error {
	type alias CloudEvent
	aux := struct {
		*alias
		Data json.RawMessage `json:"data"`
	}{alias: (*alias)(e)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	e.RawData = aux.Data
	e.Data = nil
	return nil
}

// MarshalJSON writes the raw payload back when the event was decoded from the wire
func (e CloudEvent) MarshalJSON() ([]byte, error) {
	type alias CloudEvent
	if e.Data == nil && len(e.RawData) > 0 {
		return json.Marshal(struct {
			alias
			Data json.RawMessage `json:"data"`
		}{alias: alias(e), Data: e.RawData})
	}
	return json.Marshal(alias(e))
}

// DecodeData decodes the event payload into v
func (e *CloudEvent) DecodeData(v interface{}) error {
	raw := e.RawData
	if len(raw) == 0 {
		if e.Data == nil {
			return fmt.Errorf("event %s has no data", e.ID)
		}
		b, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode event data: %w", err)
	}
	return nil
}

// BatchStateChangedData is published by manufacturing whenever a batch changes state.
// Only the identity is trusted; handlers reload the current snapshot.
type BatchStateChangedData struct {
	BatchID string `json:"batchId" validate:"required"`
	Status  string `json:"status,omitempty"`
}

// OrderChangedData is the payload of any order event
type OrderChangedData struct {
	OrderID string `json:"orderId" validate:"required"`
}

// SupplyOpenedData represents the data payload for SupplyOpened event
type SupplyOpenedData struct {
	SupplyID  string    `json:"supplyId"`
	AccountID string    `json:"accountId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// PackageLineData is one order line inside a package
type PackageLineData struct {
	OrderID     string `json:"orderId"`
	OrderLineID string `json:"orderLineId"`
	Sort        int64  `json:"sort"`
}

// PackageCreatedData represents the data payload for PackageCreated event
type PackageCreatedData struct {
	PackageID  string            `json:"packageId"`
	AccountID  string            `json:"accountId"`
	SupplyID   string            `json:"supplyId"`
	OutOfBatch bool              `json:"outOfBatch"`
	Lines      []PackageLineData `json:"lines"`
}
