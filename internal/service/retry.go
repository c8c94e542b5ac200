package service

import (
	"context"
	"time"
)

// RetryConfig bounds the retry loop. MaxRetries counts retries, not
// attempts: an operation runs at most MaxRetries+1 times.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: 100 * time.Millisecond}
}

// ExecuteWithRetry runs op until it succeeds or fails terminally. Retryable
// failures back off exponentially (BaseDelay, 2x per attempt); exhausting the
// budget returns MAX_RETRIES_EXCEEDED wrapping the last failure. This wrapper
// is the only place in the core that sleeps; the transactions themselves are
// single-shot.
func ExecuteWithRetry[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := cfg.BaseDelay << (attempt - 1)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, &TxError{
					Code:    CodeTransactionFailed,
					Message: "retry interrupted",
					Err:     ctx.Err(),
				}
			case <-timer.C:
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, &TxError{
		Code:    CodeMaxRetriesExceeded,
		Message: "retry budget exhausted",
		Detail:  map[string]any{"attempts": cfg.MaxRetries + 1},
		Err:     lastErr,
	}
}
