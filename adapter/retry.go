package adapter

import (
	"context"
	"fmt"
	"time"
)

// BaseBackoff is the delay before the first retry. It doubles per retry.
const BaseBackoff = 500 * time.Millisecond

// Retry calls attempt up to 1+retries times, sleeping BaseBackoff<<(i-1)
// before retry i. It stops early when attempt succeeds, when permanent
// reports the error as non-retriable, or when ctx is done.
// A nil permanent treats every error as retriable.
func Retry(ctx context.Context, retries int, attempt func(context.Context) error, permanent func(error) bool) error {
	attempts := 1 + retries
	var lastErr error

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context canceled: %w", err)
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context canceled during backoff: %w", ctx.Err())
			case <-time.After(BaseBackoff << uint(i-1)):
			}
		}

		lastErr = attempt(ctx)
		if lastErr == nil {
			return nil
		}
		if permanent != nil && permanent(lastErr) {
			return fmt.Errorf("non-retriable error: %w", lastErr)
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
