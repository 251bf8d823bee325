// Package retry is the lightweight backoff helper used where the failsafe
// pipeline in pkg/http would be overkill: alert webhook delivery and the
// ticker stream reconnect loop.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy bounds the attempts and the backoff window.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultPolicy suits short outbound calls like webhook posts.
var DefaultPolicy = RetryPolicy{
	MaxAttempts:    3,
	InitialBackoff: 100 * time.Millisecond,
	MaxBackoff:     2 * time.Second,
}

// IsTransientFunc reports whether an error is worth retrying.
type IsTransientFunc func(error) bool

// Do runs fn under the policy, backing off between transient failures. The
// last error is returned once attempts run out; non-transient errors return
// immediately.
func Do(ctx context.Context, policy RetryPolicy, isTransient IsTransientFunc, fn func() error) error {
	var err error
	backoff := policy.InitialBackoff

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if !isTransient(err) {
			return err
		}

		if attempt == policy.MaxAttempts-1 {
			break
		}

		// Jitter up to half the current backoff so retries do not align.
		jitter := time.Duration(rand.Int63n(int64(backoff / 2)))
		delay := backoff + jitter

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			backoff = minDuration(backoff*2, policy.MaxBackoff)
		}
	}

	return err
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
