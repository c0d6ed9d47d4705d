// Package retry wraps fallible external calls with bounded exponential
// backoff. Only transient failures (timeout, rate limit, connection) are
// retried; everything else propagates on first occurrence.
package retry

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/ragline/ragline/internal/domain"
)

// Config holds backoff parameters.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultConfig returns the standard retry budget: 3 attempts, 1s base delay
// doubling up to a 10s cap.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		Multiplier:  2.0,
	}
}

// Do executes fn with exponential backoff, returning its value on the first
// success. An in-flight attempt runs to its own timeout; the overall deadline
// is re-checked between attempts.
func Do[T any](
	ctx context.Context, cfg Config, logger *zap.Logger, op string,
	fn func(context.Context) (T, error),
) (T, error) {
	var zero T
	var lastErr error

	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !domain.IsTransient(err) {
			return zero, err
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		logger.Warn("transient failure, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", cfg.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := sleep(ctx, withJitter(delay)); err != nil {
			return zero, lastErr
		}

		delay = min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay)
	}

	return zero, lastErr
}

// withJitter spreads the delay over [delay/2, delay) to avoid thundering herds.
func withJitter(delay time.Duration) time.Duration {
	half := delay / 2
	if half <= 0 {
		return delay
	}
	return half + rand.N(half)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
