package kafka

import (
	"time"
)

// Config holds Kafka configuration
type Config struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string

	// Producer settings
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack

	// Consumer settings
	MinBytes      int
	MaxBytes      int
	MaxWait       time.Duration
	CommitTimeout time.Duration

	// HandlerRetries is how many times a failed handler is re-run for the same
	// message in one round. After a failed round the consumer waits MaxRetryBackoff
	// and starts another; it never moves past the message.
	HandlerRetries  int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:       []string{"localhost:9092"},
		ConsumerGroup: "fbs-supply-service",
		ClientID:      "fbs-supply-service",

		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,

		MinBytes:      1,
		MaxBytes:      10e6, // 10MB
		MaxWait:       500 * time.Millisecond,
		CommitTimeout: 5 * time.Second,

		HandlerRetries:  5,
		RetryBackoff:    200 * time.Millisecond,
		MaxRetryBackoff: 10 * time.Second,
	}
}

// Topics contains the Kafka topic names used by the supply service
var Topics = struct {
	BatchEvents    string
	OrdersEvents   string
	SupplyEvents   string
	PackagesEvents string
}{
	BatchEvents:    "fbs.batches.events",
	OrdersEvents:   "fbs.orders.events",
	SupplyEvents:   "fbs.supplies.events",
	PackagesEvents: "fbs.packages.events",
}
