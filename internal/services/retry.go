package services

import (
	"context"
	"errors"
	"time"
)

// permanentError wraps an error that retry loops must not repeat.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// PermanentError marks err as non-retryable for WithRetry.
func PermanentError(err error) error {
	return &permanentError{err: err}
}

// WithRetry runs op up to retries+1 times with exponential backoff
// (baseDelay, 2*baseDelay, ...). An error wrapped with PermanentError stops
// the loop immediately. Backoff respects context cancellation.
func WithRetry(ctx context.Context, retries int, baseDelay time.Duration, op func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		if err = op(); err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
	}
	return err
}
