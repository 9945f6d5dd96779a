package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/gymcrm/pkg/queue"
)

func TestExponentialBackoff(t *testing.T) {
	t.Parallel()

	b := queue.DefaultBackoff()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{10, time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.NextInterval(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoff_Jitter(t *testing.T) {
	t.Parallel()

	b := queue.ExponentialBackoff{InitialInterval: time.Second, MaxInterval: time.Minute, Multiplier: 2, JitterFactor: 0.1}
	for range 50 {
		d := b.NextInterval(2)
		assert.GreaterOrEqual(t, d, 1800*time.Millisecond)
		assert.LessOrEqual(t, d, 2200*time.Millisecond)
	}
}

func TestConfig_Backoff(t *testing.T) {
	t.Parallel()

	cfg := queue.Config{RetryInitialInterval: 30 * time.Second, RetryMaxInterval: time.Minute}
	b := cfg.Backoff()
	assert.Equal(t, 30*time.Second, b.NextInterval(1))
	assert.Equal(t, time.Minute, b.NextInterval(3))
}
