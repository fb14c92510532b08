package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryConfig bounds a retried operation by attempt count rather than time.
type RetryConfig struct {
	// Retries is the number of extra attempts after the first one.
	Retries int
	// Delay is the fixed pause between attempts.
	Delay time.Duration
	// Retryable decides whether a failure is worth another attempt. Nil means
	// every failure is retryable.
	Retryable func(err error) bool
}

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// retry budget is spent. The last failure is returned unwrapped so callers can
// inspect it exactly as fn produced it.
func Retry(ctx context.Context, name string, cfg RetryConfig, fn func(attempt int) error) error {
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	logger := slog.Default().With("component", "retry", "operation", name)
	maxAttempts := cfg.Retries + 1

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if cfg.Retryable != nil && !cfg.Retryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}
		logger.Warn("operation failed, retrying",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", lastErr,
			"next_delay", cfg.Delay,
		)
		if cfg.Delay <= 0 {
			continue
		}
		timer := time.NewTimer(cfg.Delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted during backoff: %w", ctx.Err())
		}
	}
	if maxAttempts > 1 {
		logger.Warn("retry budget exhausted", "attempts", maxAttempts, "error", lastErr)
	}
	return lastErr
}
