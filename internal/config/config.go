package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wms-platform/fbs-supply-service/internal/application"
	"github.com/wms-platform/fbs-supply-service/internal/infrastructure/messaging"
	"github.com/wms-platform/fbs-supply-service/internal/infrastructure/redis"
	apperrors "github.com/wms-platform/fbs-supply-service/pkg/errors"
	"github.com/wms-platform/fbs-supply-service/pkg/kafka"
	"github.com/wms-platform/fbs-supply-service/pkg/mongodb"
	"github.com/wms-platform/fbs-supply-service/pkg/temporal"
	"github.com/wms-platform/fbs-supply-service/pkg/tracing"
)

// ServiceName is the name the service reports in logs, metrics and traces
const ServiceName = "fbs-supply-service"

// Config holds the worker configuration
type Config struct {
	ServerAddr   string `yaml:"serverAddr" validate:"required"`
	LogLevel     string `yaml:"logLevel" validate:"oneof=debug info warn error critical"`
	DispatchMode string `yaml:"dispatchMode" validate:"oneof=inline temporal"`

	Handlers HandlersConfig  `yaml:"handlers"`
	Mongo    MongoConfig     `yaml:"mongo"`
	Kafka    KafkaConfig     `yaml:"kafka"`
	Redis    redis.Config    `yaml:"redis"`
	Temporal temporal.Config `yaml:"temporal"`
	Tracing  TracingConfig   `yaml:"tracing"`
}

// HandlersConfig holds the batch handler settings
type HandlersConfig struct {
	Namespace               string `yaml:"namespace" validate:"required"`
	FBSDeliveryType         string `yaml:"fbsDeliveryType" validate:"required"`
	ReadyForPackagingStatus string `yaml:"readyForPackagingStatus" validate:"required"`
}

// MongoConfig holds MongoDB settings
type MongoConfig struct {
	URI        string `yaml:"uri" validate:"required"`
	Database   string `yaml:"database" validate:"required"`
	ReplicaSet string `yaml:"replicaSet"`
}

// KafkaConfig holds Kafka settings
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers" validate:"min=1,dive,required"`
	ConsumerGroup string   `yaml:"consumerGroup" validate:"required"`
	BatchTopic    string   `yaml:"batchTopic" validate:"required"`
	OrdersTopic   string   `yaml:"ordersTopic" validate:"required"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sampleRate" validate:"gte=0,lte=1"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		ServerAddr:   ":8080",
		LogLevel:     "info",
		DispatchMode: messaging.DispatchInline,
		Handlers: HandlersConfig{
			Namespace:               ServiceName,
			FBSDeliveryType:         "fbs",
			ReadyForPackagingStatus: "ready_for_packaging",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "fbs_supply",
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: ServiceName,
			BatchTopic:    kafka.Topics.BatchEvents,
			OrdersTopic:   kafka.Topics.OrdersEvents,
		},
		Redis:    *redis.DefaultConfig(),
		Temporal: *temporal.DefaultConfig(),
		Tracing: TracingConfig{
			Endpoint:   "localhost:4317",
			SampleRate: 1.0,
		},
	}
}

// Load reads the optional YAML file named by CONFIG_FILE, applies environment
// overrides and validates the result
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.ErrConfig("failed to read config file").Wrap(err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, apperrors.ErrConfig("failed to parse config file").Wrap(err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.ServerAddr = getEnv("SERVER_ADDR", c.ServerAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DispatchMode = getEnv("DISPATCH_MODE", c.DispatchMode)

	c.Handlers.Namespace = getEnv("DEDUP_NAMESPACE", c.Handlers.Namespace)
	c.Handlers.FBSDeliveryType = getEnv("FBS_DELIVERY_TYPE", c.Handlers.FBSDeliveryType)
	c.Handlers.ReadyForPackagingStatus = getEnv("READY_FOR_PACKAGING_STATUS", c.Handlers.ReadyForPackagingStatus)

	c.Mongo.URI = getEnv("MONGODB_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGODB_DATABASE", c.Mongo.Database)
	c.Mongo.ReplicaSet = getEnv("MONGODB_REPLICA_SET", c.Mongo.ReplicaSet)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = strings.Split(brokers, ",")
	}
	c.Kafka.ConsumerGroup = getEnv("KAFKA_CONSUMER_GROUP", c.Kafka.ConsumerGroup)
	c.Kafka.BatchTopic = getEnv("KAFKA_BATCH_TOPIC", c.Kafka.BatchTopic)
	c.Kafka.OrdersTopic = getEnv("KAFKA_ORDERS_TOPIC", c.Kafka.OrdersTopic)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.NotifyChannel = getEnv("REDIS_NOTIFY_CHANNEL", c.Redis.NotifyChannel)

	c.Temporal.HostPort = getEnv("TEMPORAL_HOST", c.Temporal.HostPort)
	c.Temporal.Namespace = getEnv("TEMPORAL_NAMESPACE", c.Temporal.Namespace)

	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return apperrors.ErrConfig("TRACING_ENABLED must be a boolean").Wrap(err)
		}
		c.Tracing.Enabled = enabled
	}
	return nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		fields := map[string]string{}
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields[fe.Namespace()] = fe.Tag()
			}
		}
		return apperrors.ErrConfig(fmt.Sprintf("invalid configuration: %v", err)).WithDetails(fields).Wrap(err)
	}
	return nil
}

// HandlerConfig returns the batch handler settings
func (c *Config) HandlerConfig() application.HandlerConfig {
	return application.HandlerConfig{
		Namespace:               c.Handlers.Namespace,
		FBSDeliveryType:         c.Handlers.FBSDeliveryType,
		ReadyForPackagingStatus: c.Handlers.ReadyForPackagingStatus,
	}
}

// MongoDB returns the MongoDB client configuration
func (c *Config) MongoDB() *mongodb.Config {
	cfg := mongodb.DefaultConfig()
	cfg.URI = c.Mongo.URI
	cfg.Database = c.Mongo.Database
	cfg.ReplicaSet = c.Mongo.ReplicaSet
	return cfg
}

// KafkaClient returns the Kafka client configuration
func (c *Config) KafkaClient() *kafka.Config {
	cfg := kafka.DefaultConfig()
	cfg.Brokers = c.Kafka.Brokers
	cfg.ConsumerGroup = c.Kafka.ConsumerGroup
	cfg.ClientID = ServiceName
	return cfg
}

// TracingClient returns the tracing configuration
func (c *Config) TracingClient() *tracing.Config {
	cfg := tracing.DefaultConfig(ServiceName)
	cfg.Enabled = c.Tracing.Enabled
	cfg.OTLPEndpoint = c.Tracing.Endpoint
	cfg.SampleRate = c.Tracing.SampleRate
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	return cfg
}

// OrderCacheTTL returns the order cache TTL, defaulting to five minutes
func (c *Config) OrderCacheTTL() time.Duration {
	if c.Redis.OrderCacheTTL <= 0 {
		return 5 * time.Minute
	}
	return c.Redis.OrderCacheTTL
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
