package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogBufferCount(t *testing.T) {
	logger, buf := NewTestLogger()

	logger.Critical("batch snapshot missing", "batchId", "b-1")
	logger.Warn("empty batch")
	logger.Critical("batch snapshot missing", "batchId", "b-2")

	assert.Equal(t, 2, buf.Count("CRITICAL", "batch snapshot missing"))
	assert.Equal(t, 1, buf.Count("WARN", "empty batch"))
	assert.Len(t, buf.Entries(), 3)
}
