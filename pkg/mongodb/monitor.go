package mongodb

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/event"

	"github.com/wms-platform/fbs-supply-service/pkg/metrics"
)

// ignoredCommands are driver housekeeping commands that would drown the metrics
var ignoredCommands = map[string]bool{
	"hello":        true,
	"isMaster":     true,
	"ping":         true,
	"saslStart":    true,
	"saslContinue": true,
	"endSessions":  true,
	"killCursors":  true,
	"buildInfo":    true,
}

// CommandMetrics records per-collection command counts and latencies
type CommandMetrics struct {
	metrics  *metrics.Metrics
	inflight sync.Map // requestID -> collection
}

// NewCommandMetrics creates a CommandMetrics recorder
func NewCommandMetrics(m *metrics.Metrics) *CommandMetrics {
	return &CommandMetrics{metrics: m}
}

// Monitor returns the driver command monitor
func (c *CommandMetrics) Monitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started:   c.started,
		Succeeded: c.succeeded,
		Failed:    c.failed,
	}
}

func (c *CommandMetrics) started(_ context.Context, evt *event.CommandStartedEvent) {
	if ignoredCommands[evt.CommandName] {
		return
	}
	collection := ""
	if v, err := evt.Command.LookupErr(evt.CommandName); err == nil {
		collection, _ = v.StringValueOK()
	}
	c.inflight.Store(evt.RequestID, collection)
}

func (c *CommandMetrics) succeeded(_ context.Context, evt *event.CommandSucceededEvent) {
	c.finish(evt.RequestID, evt.CommandName, true, time.Duration(evt.DurationNanos))
}

func (c *CommandMetrics) failed(_ context.Context, evt *event.CommandFailedEvent) {
	c.finish(evt.RequestID, evt.CommandName, false, time.Duration(evt.DurationNanos))
}

func (c *CommandMetrics) finish(requestID int64, command string, success bool, duration time.Duration) {
	v, ok := c.inflight.LoadAndDelete(requestID)
	if !ok {
		return
	}
	collection, _ := v.(string)
	c.metrics.RecordMongoDBOperation(collection, command, success, duration)
}
