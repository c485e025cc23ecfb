package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultRetentionPeriod is how long completed operation markers are kept
const DefaultRetentionPeriod = 30 * 24 * time.Hour

// keySeparator joins key parts. The separator and the escape character are both
// escaped inside parts so that distinct part lists never collide.
const keySeparator = ":"

var keyEscaper = strings.NewReplacer(`\`, `\\`, keySeparator, `\`+keySeparator)

// Deduplicator hands out tokens for keyed units of work
type Deduplicator interface {
	Begin(namespace string, keyParts ...string) Token
}

// Token guards one keyed unit of work. IsDone is checked before any side effect and
// MarkDone is called only after every side effect has committed.
type Token interface {
	Key() string
	IsDone(ctx context.Context) (bool, error)
	MarkDone(ctx context.Context) error
}

// GuardConfig holds configuration for the deduplication guard
type GuardConfig struct {
	ServiceName     string
	Repository      OperationRepository
	RetentionPeriod time.Duration
	Metrics         *Metrics
}

// DefaultGuardConfig returns a default configuration for the given service
func DefaultGuardConfig(serviceName string, repository OperationRepository) *GuardConfig {
	return &GuardConfig{
		ServiceName:     serviceName,
		Repository:      repository,
		RetentionPeriod: DefaultRetentionPeriod,
	}
}

// Guard is the OperationRepository-backed Deduplicator
type Guard struct {
	config *GuardConfig
	now    func() time.Time
}

// NewGuard creates a Guard
func NewGuard(config *GuardConfig) *Guard {
	if config.RetentionPeriod <= 0 {
		config.RetentionPeriod = DefaultRetentionPeriod
	}
	return &Guard{config: config, now: time.Now}
}

// Begin builds a token for namespace and the composite key
func (g *Guard) Begin(namespace string, keyParts ...string) Token {
	return &guardToken{
		guard:     g,
		namespace: namespace,
		key:       ComposeKey(keyParts...),
	}
}

// ComposeKey joins key parts into the stored key
func ComposeKey(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = keyEscaper.Replace(p)
	}
	return strings.Join(escaped, keySeparator)
}

type guardToken struct {
	guard     *Guard
	namespace string
	key       string
}

func (t *guardToken) Key() string {
	return t.namespace + "/" + t.key
}

func (t *guardToken) IsDone(ctx context.Context) (bool, error) {
	if t.namespace == "" {
		return false, ErrNamespaceRequired
	}

	cfg := t.guard.config
	done, err := cfg.Repository.IsCompleted(ctx, t.namespace, t.key)
	if err != nil {
		cfg.Metrics.RecordStorageError(cfg.ServiceName, "is_completed")
		return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	if done {
		cfg.Metrics.RecordHit(cfg.ServiceName, t.namespace)
	} else {
		cfg.Metrics.RecordMiss(cfg.ServiceName, t.namespace)
	}
	return done, nil
}

// MarkDone is idempotent: a marker recorded by a concurrent worker counts as success.
func (t *guardToken) MarkDone(ctx context.Context) error {
	if t.namespace == "" {
		return ErrNamespaceRequired
	}

	cfg := t.guard.config
	now := t.guard.now().UTC()
	err := cfg.Repository.MarkCompleted(ctx, &CompletedOperation{
		Namespace:   t.namespace,
		Key:         t.key,
		ServiceID:   cfg.ServiceName,
		CompletedAt: now,
		ExpiresAt:   now.Add(cfg.RetentionPeriod),
	})
	if err == nil || errors.Is(err, ErrOperationAlreadyCompleted) {
		return nil
	}

	cfg.Metrics.RecordStorageError(cfg.ServiceName, "mark_completed")
	return fmt.Errorf("%w: %v", ErrStorageFailure, err)
}
