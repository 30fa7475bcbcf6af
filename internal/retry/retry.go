// Package retry decides which provider and classifier failures are worth
// retrying and runs the retry loop with exponential backoff and jitter.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mikey/contract-spam-filter/internal/core"
)

const (
	defaultInitialInterval = 100 * time.Millisecond
	defaultMaxInterval     = 10 * time.Second
)

// Retryable reports whether an error is transient. NotFound and
// Unauthorized are terminal: the former is a definitive answer, the latter
// a configuration problem that retrying cannot fix.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch core.KindOf(err) {
	case core.ErrTimeout, core.ErrRateLimited, core.ErrUnavailable:
		return true
	default:
		return false
	}
}

// Do runs op up to maxAttempts times, backing off exponentially between
// transient failures. Terminal errors and context cancellation stop the
// loop immediately.
func Do[T any](ctx context.Context, maxAttempts int, op func(ctx context.Context) (T, error)) (T, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = defaultInitialInterval
	policy.MaxInterval = defaultMaxInterval

	var out T
	attempt := func() error {
		result, err := op(ctx)
		if err != nil {
			if Retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		out = result
		return nil
	}

	err := backoff.Retry(
		attempt,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(maxAttempts-1)), ctx),
	)
	return out, err
}
