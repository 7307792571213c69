// Package retry provides the retry combinator used around field-extraction
// inference calls. Backoff is linear: attempt number times the base delay.
package retry

import (
	"context"
	"log/slog"
	"time"
)

type Config struct {
	MaxAttempts int           // default 3
	BaseDelay   time.Duration // default 1s
}

func (c Config) normalize() Config {
	out := c
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = 3
	}
	if out.BaseDelay <= 0 {
		out.BaseDelay = time.Second
	}
	return out
}

// Do runs fn until it succeeds or cfg.MaxAttempts is exhausted. Every failed
// attempt is logged with its attempt number; the last error is returned once
// attempts run out. The backoff sleep is context-aware: cancellation during a
// wait returns the last error immediately.
func Do(ctx context.Context, cfg Config, logger *slog.Logger, operation string, fn func(context.Context) error) error {
	cfg = cfg.normalize()
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		wait := time.Duration(attempt) * cfg.BaseDelay
		logger.Warn("retry.attempt_failed",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"backoff_ms", wait.Milliseconds(),
			"error", lastErr,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}

	logger.Error("retry.exhausted",
		"operation", operation,
		"attempts", cfg.MaxAttempts,
		"error", lastErr,
	)
	return lastErr
}
