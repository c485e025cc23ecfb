package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wms-platform/fbs-supply-service/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "inline", cfg.DispatchMode)
	assert.Equal(t, "fbs", cfg.HandlerConfig().FBSDeliveryType)
	assert.Equal(t, "fbs_supply", cfg.MongoDB().Database)
	assert.Equal(t, ServiceName, cfg.KafkaClient().ClientID)
	assert.Equal(t, 5*time.Minute, cfg.OrderCacheTTL())
	assert.False(t, cfg.TracingClient().Enabled)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dispatchMode: temporal
handlers:
  namespace: fbs-supply-eu
  fbsDeliveryType: seller
  readyForPackagingStatus: awaiting_packaging
kafka:
  brokers: [kafka-1:9092, kafka-2:9092]
  consumerGroup: fbs-supply-eu
  batchTopic: eu.batches
  ordersTopic: eu.orders
redis:
  addr: redis:6379
  notifyChannel: eu.notifications
  cacheNamespace: eu-supply
  orderCacheTTL: 30s
temporal:
  hostPort: temporal:7233
  namespace: fbs
  taskQueue: fbs-supply-queue
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("KAFKA_BROKERS", "kafka-3:9092")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "temporal", cfg.DispatchMode)
	assert.Equal(t, "seller", cfg.Handlers.FBSDeliveryType)
	assert.Equal(t, "awaiting_packaging", cfg.HandlerConfig().ReadyForPackagingStatus)
	assert.Equal(t, []string{"kafka-3:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "eu.batches", cfg.Kafka.BatchTopic)
	assert.Equal(t, 30*time.Second, cfg.OrderCacheTTL())
	assert.Equal(t, "temporal:7233", cfg.Temporal.HostPort)
	assert.True(t, cfg.TracingClient().Enabled)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DISPATCH_MODE", "carrier-pigeon")

	_, err := Load()
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeConfigError, appErr.Code)
	assert.Equal(t, "oneof", appErr.Details["Config.DispatchMode"])
}

func TestLoadRejectsBadTracingFlag(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TRACING_ENABLED", "maybe")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.ErrorContains(t, err, "failed to read config file")
}
