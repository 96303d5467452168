package utils

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *Logger
	// IsRetryable decides whether a failed attempt is retried. Nil retries every error.
	IsRetryable func(error) bool
}

// Do executes fn with exponential back-off retry logic. The last error is
// returned wrapped; a non-retryable error is returned as-is on first sight.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func(attempt int) error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := r.BaseDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if r.IsRetryable != nil && !r.IsRetryable(lastErr) {
			return lastErr
		}

		if attempt < attempts {
			if r.Logger != nil {
				r.Logger.Warn("retrying operation",
					zap.String("operation", operationName),
					zap.Int("attempt", attempt),
					zap.Int("max_attempts", attempts),
					zap.Duration("delay", delay),
					zap.Error(lastErr))
			}
			if err := Sleep(ctx, delay); err != nil {
				return err
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempts, lastErr)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
