package testing

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/wms-platform/fbs-supply-service/pkg/logging"
)

// LogBuffer is a goroutine safe sink for test loggers
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Entries decodes every JSON line logged so far. Lines that fail to decode are skipped.
func (b *LogBuffer) Entries() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()

	var entries []map[string]any
	for _, line := range bytes.Split(b.buf.Bytes(), []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Count returns how many entries were logged at level with msg
func (b *LogBuffer) Count(level, msg string) int {
	n := 0
	for _, entry := range b.Entries() {
		if entry["level"] == level && entry["msg"] == msg {
			n++
		}
	}
	return n
}

// NewTestLogger returns a debug level logger writing JSON lines into a LogBuffer
func NewTestLogger() (*logging.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	cfg := logging.DefaultConfig("fbs-supply-test")
	cfg.Level = logging.LevelDebug
	cfg.Output = buf
	return logging.New(cfg), buf
}
