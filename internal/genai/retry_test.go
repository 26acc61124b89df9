package genai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryConfig_Backoff(t *testing.T) {
	t.Parallel()

	cfg := RetryConfig{MaxAttempts: 5, InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	tests := []struct {
		attempt int
		ceiling time.Duration
	}{
		{0, 0},
		{-1, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{5, time.Second},
		{80, time.Second},
	}

	for _, tt := range tests {
		for range 50 {
			got := cfg.Backoff(tt.attempt)
			assert.GreaterOrEqual(t, got, time.Duration(0), "attempt %d", tt.attempt)
			if tt.ceiling == 0 {
				assert.Zero(t, got, "attempt %d", tt.attempt)
				continue
			}
			assert.Less(t, got, tt.ceiling, "attempt %d", tt.attempt)
		}
	}
}

func TestRetryConfig_BackoffWithoutDelay(t *testing.T) {
	t.Parallel()
	assert.Zero(t, RetryConfig{MaxAttempts: 3}.Backoff(2))
}

func TestRetryConfig_Normalized(t *testing.T) {
	t.Parallel()

	cfg := RetryConfig{InitialDelay: time.Second}.normalized()
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.MaxDelay)

	def := DefaultRetryConfig()
	assert.Equal(t, def, def.normalized())
}

func TestWait(t *testing.T) {
	t.Parallel()

	assert.NoError(t, wait(t.Context(), 0))
	assert.NoError(t, wait(t.Context(), time.Millisecond))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.ErrorIs(t, wait(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, wait(ctx, 0), context.Canceled)
}

func TestFitsDeadline(t *testing.T) {
	t.Parallel()

	assert.True(t, fitsDeadline(t.Context(), time.Hour), "no deadline")

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	assert.True(t, fitsDeadline(ctx, time.Millisecond))
	assert.False(t, fitsDeadline(ctx, time.Second))
}
