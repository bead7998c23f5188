/*
Package retry provides a small fixed-delay retry loop for transient storage
failures. It deliberately has no jitter or backoff: the call sites retry a
local database a handful of times, where a constant short delay is enough and
keeps test timing predictable.
*/
package retry

import (
	"context"
	"errors"
	"time"
)

// Config bounds a retry loop.
type Config struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Delay is the pause between consecutive tries.
	Delay time.Duration
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do returns it immediately instead of retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs fn up to cfg.Attempts times, sleeping cfg.Delay between tries.
// It stops early on success, on a Permanent error (returned unwrapped), or
// when ctx is done. The last error is returned after the final attempt.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.Delay):
		}
	}
	return lastErr
}
