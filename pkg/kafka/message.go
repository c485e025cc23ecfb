package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wms-platform/fbs-supply-service/pkg/cloudevents"
)

const headerPrefix = "ce-"

// encodeMessage converts a CloudEvent into a Kafka message using the binary-mode
// ce-* headers for attributes and extensions.
func encodeMessage(event *cloudevents.CloudEvent) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Subject),
		Value: data,
		Headers: []kafka.Header{
			{Key: "ce-specversion", Value: []byte(event.SpecVersion)},
			{Key: "ce-type", Value: []byte(event.Type)},
			{Key: "ce-source", Value: []byte(event.Source)},
			{Key: "ce-id", Value: []byte(event.ID)},
			{Key: "ce-time", Value: []byte(event.Time.Format(time.RFC3339))},
			{Key: "content-type", Value: []byte(event.DataContentType)},
		},
		Time: event.Time,
	}

	for _, ext := range []struct{ key, value string }{
		{cloudevents.ExtCorrelationID, event.CorrelationID},
		{cloudevents.ExtWorkflowID, event.WorkflowID},
		{cloudevents.ExtAccountID, event.AccountID},
		{cloudevents.ExtTraceParent, event.TraceParent},
		{cloudevents.ExtTraceState, event.TraceState},
	} {
		if ext.value != "" {
			msg.Headers = append(msg.Headers, kafka.Header{Key: headerPrefix + ext.key, Value: []byte(ext.value)})
		}
	}

	return msg, nil
}

// decodeMessage parses a Kafka message into a CloudEvent. Extension headers win over
// the same fields in the body.
func decodeMessage(msg kafka.Message) (*cloudevents.CloudEvent, error) {
	var event cloudevents.CloudEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	for _, header := range msg.Headers {
		switch header.Key {
		case headerPrefix + cloudevents.ExtCorrelationID:
			event.CorrelationID = string(header.Value)
		case headerPrefix + cloudevents.ExtWorkflowID:
			event.WorkflowID = string(header.Value)
		case headerPrefix + cloudevents.ExtAccountID:
			event.AccountID = string(header.Value)
		case headerPrefix + cloudevents.ExtTraceParent:
			event.TraceParent = string(header.Value)
		case headerPrefix + cloudevents.ExtTraceState:
			event.TraceState = string(header.Value)
		}
	}

	return &event, nil
}
