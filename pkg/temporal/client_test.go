package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigUsesSupplyQueue(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "fbs-supply-queue", cfg.TaskQueue)
	assert.Equal(t, "default", cfg.Namespace)
}

func TestRetryPolicyToTemporal(t *testing.T) {
	policy := DefaultActivityOptions().RetryPolicy.ToTemporal()

	assert.Equal(t, time.Second, policy.InitialInterval)
	assert.Equal(t, 2.0, policy.BackoffCoefficient)
	assert.Equal(t, time.Minute, policy.MaximumInterval)
	assert.Equal(t, int32(5), policy.MaximumAttempts)
}
