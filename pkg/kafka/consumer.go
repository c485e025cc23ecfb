package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wms-platform/fbs-supply-service/pkg/cloudevents"
	"github.com/wms-platform/fbs-supply-service/pkg/logging"
	"github.com/wms-platform/fbs-supply-service/pkg/resilience"
)

// EventHandler is a function that handles a CloudEvent
type EventHandler func(ctx context.Context, event *cloudevents.CloudEvent) error

// MessageReader is the subset of *kafka.Reader used by the consumer
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks a handler error as not worth retrying. The message is committed
// and skipped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Consumer handles consuming messages from Kafka topics
type Consumer struct {
	config    *Config
	mu        sync.Mutex
	readers   map[string]MessageReader
	handlers  map[string]map[string]EventHandler // topic -> eventType -> handler
	newReader func(topic string) MessageReader
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(config *Config, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Consumer{
		config:   config,
		readers:  make(map[string]MessageReader),
		handlers: make(map[string]map[string]EventHandler),
		logger:   logger,
	}
	c.newReader = c.kafkaReader
	return c
}

// Subscribe subscribes to a topic with a handler for a specific event type
func (c *Consumer) Subscribe(topic string, eventType string, handler EventHandler) {
	if _, exists := c.handlers[topic]; !exists {
		c.handlers[topic] = make(map[string]EventHandler)
	}
	c.handlers[topic][eventType] = handler
}

// SubscribeAll subscribes to all event types on a topic with a single handler
func (c *Consumer) SubscribeAll(topic string, handler EventHandler) {
	c.Subscribe(topic, "*", handler)
}

func (c *Consumer) kafkaReader(topic string) MessageReader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        c.config.Brokers,
		GroupID:        c.config.ConsumerGroup,
		Topic:          topic,
		MinBytes:       c.config.MinBytes,
		MaxBytes:       c.config.MaxBytes,
		MaxWait:        c.config.MaxWait,
		CommitInterval: 0, // synchronous commits
	})
}

func (c *Consumer) getReader(topic string) MessageReader {
	c.mu.Lock()
	defer c.mu.Unlock()

	if reader, exists := c.readers[topic]; exists {
		return reader
	}
	reader := c.newReader(topic)
	c.readers[topic] = reader
	return reader
}

// Start consumes all subscribed topics until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	for topic := range c.handlers {
		reader := c.getReader(topic)
		c.wg.Add(1)
		go func(topic string) {
			defer c.wg.Done()
			c.consumeTopic(ctx, topic, reader)
		}(topic)
	}

	<-ctx.Done()
	c.wg.Wait()
	return ctx.Err()
}

func (c *Consumer) consumeTopic(ctx context.Context, topic string, reader MessageReader) {
	c.logger.Info("Starting consumer for topic", "topic", topic, "group", c.config.ConsumerGroup)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Stopping consumer for topic", "topic", topic)
				return
			}
			c.logger.Error("Error fetching message", "topic", topic, "error", err)
			continue
		}

		event, err := decodeMessage(msg)
		if err != nil {
			c.logger.Error("Error parsing message", "topic", topic, "offset", msg.Offset, "error", err)
			c.commit(ctx, topic, reader, msg)
			continue
		}

		err = c.handleUntilSettled(ctx, topic, event)
		switch {
		case err == nil:
			c.commit(ctx, topic, reader, msg)
		case IsPermanent(err):
			c.logger.Error("Dropping event after permanent failure",
				"topic", topic,
				"eventType", event.Type,
				"eventId", event.ID,
				"error", err,
			)
			c.commit(ctx, topic, reader, msg)
		default:
			// Shutting down with the message uncommitted; the group resumes from it.
			return
		}
	}
}

// handleUntilSettled keeps the consumer on one message until it succeeds, fails
// permanently or ctx is cancelled. Committing a later offset would skip it.
func (c *Consumer) handleUntilSettled(ctx context.Context, topic string, event *cloudevents.CloudEvent) error {
	for {
		err := c.handleWithRetry(ctx, topic, event)
		if err == nil || IsPermanent(err) || ctx.Err() != nil {
			return err
		}

		c.logger.Error("Error handling event, retries exhausted",
			"topic", topic,
			"eventType", event.Type,
			"eventId", event.ID,
			"attempts", c.config.HandlerRetries+1,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.config.MaxRetryBackoff):
		}
	}
}

func (c *Consumer) commit(ctx context.Context, topic string, reader MessageReader, msg kafka.Message) {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Error committing message", "topic", topic, "offset", msg.Offset, "error", err)
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, topic string, event *cloudevents.CloudEvent) error {
	retry := &resilience.RetryConfig{
		MaxAttempts:     c.config.HandlerRetries + 1,
		InitialDelay:    c.config.RetryBackoff,
		MaxDelay:        c.config.MaxRetryBackoff,
		BackoffFactor:   2,
		RetryableErrors: func(err error) bool { return !IsPermanent(err) },
		OnRetry: func(attempt int, delay time.Duration, err error) {
			c.logger.Warn("Retrying event handler",
				"topic", topic,
				"eventId", event.ID,
				"attempt", attempt,
				"backoff", delay.String(),
				"error", err,
			)
		},
	}

	return resilience.Retry(ctx, retry, func() error {
		return c.handleEvent(ctx, topic, event)
	})
}

// handleEvent routes an event to the appropriate handler
func (c *Consumer) handleEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error {
	handlers, exists := c.handlers[topic]
	if !exists {
		return Permanent(fmt.Errorf("no handlers registered for topic %s", topic))
	}

	ctx = logging.ContextWithCloudEventExtensions(ctx, event.ID, event.CorrelationID, event.WorkflowID)

	if handler, exists := handlers[event.Type]; exists {
		return handler(ctx, event)
	}
	if handler, exists := handlers["*"]; exists {
		return handler(ctx, event)
	}

	c.logger.Warn("No handler found for event type", "topic", topic, "eventType", event.Type)
	return nil
}

// Close closes all readers
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for topic, reader := range c.readers {
		if err := reader.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close reader for topic %s: %w", topic, err)
		}
	}
	return lastErr
}
