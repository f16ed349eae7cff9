package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
)

const maxRetryAttempts = 3

// baseRetryDelay doubles on each attempt: 200ms, 400ms, 800ms
var baseRetryDelay = 200 * time.Millisecond

// Transient Postgres error classes worth retrying. Everything else fails
// immediately.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
)

// IsTransient reports whether the error is a retryable Postgres condition
func IsTransient(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch string(pqErr.Code) {
	case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
		return true
	}
	return false
}

// WithRetry runs fn up to maxRetryAttempts times with exponential backoff,
// retrying only transient errors. The last error is returned when all
// attempts fail.
func WithRetry(ctx context.Context, fn func() error) error {
	var err error
	delay := baseRetryDelay
	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		if err = fn(); err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
	}
	return err
}
