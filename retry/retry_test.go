package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtask/leave-engine/retry"
)

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := retry.Do(context.Background(), retry.Config{Attempts: 3, Delay: time.Millisecond}, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	attempts := 0
	err := retry.Do(context.Background(), retry.Config{Attempts: 3, Delay: time.Millisecond}, func() error {
		attempts++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, attempts)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	attempts := 0
	err := retry.Do(context.Background(), retry.Config{Attempts: 5, Delay: time.Millisecond}, func() error {
		attempts++
		return retry.Permanent(fatal)
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts, "no retries after a permanent error")
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry.Do(ctx, retry.Config{Attempts: 3, Delay: time.Second}, func() error {
		return errors.New("never retried")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
