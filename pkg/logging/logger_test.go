package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultConfig("fbs-supply-test")
	cfg.Level = level
	cfg.Output = buf
	return New(cfg), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestCriticalLevelIsRendered(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	logger.Critical("supply missing", "accountId", "acc-1")

	entry := decodeLine(t, buf)
	assert.Equal(t, "CRITICAL", entry["level"])
	assert.Equal(t, "supply missing", entry["msg"])
	assert.Equal(t, "acc-1", entry["accountId"])
	assert.Equal(t, "fbs-supply-test", entry["service"])
}

func TestCriticalLevelFiltersErrors(t *testing.T) {
	logger, buf := newBufferLogger(LevelCritical)

	logger.Error("ignored")
	assert.Zero(t, buf.Len())

	logger.Critical("kept")
	assert.NotZero(t, buf.Len())
}

func TestWithContextAddsCloudEventFields(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug)

	ctx := ContextWithCloudEventExtensions(context.Background(), "evt-1", "corr-1", "")
	ctx = ContextWithBatchID(ctx, "batch-9")
	logger.WithContext(ctx).Info("handled")

	entry := decodeLine(t, buf)
	assert.Equal(t, "evt-1", entry["eventId"])
	assert.Equal(t, "corr-1", entry["correlationId"])
	assert.Equal(t, "batch-9", entry["batchId"])
	assert.NotContains(t, entry, "workflowId")
}

func TestWithErrorNilIsNoop(t *testing.T) {
	logger, _ := newBufferLogger(LevelInfo)
	assert.Same(t, logger, logger.WithError(nil))
}
