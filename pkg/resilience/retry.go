// Package resilience provides fault-tolerance primitives: a retry helper
// with jittered exponential backoff and a circuit breaker.
package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// RetryConfig controls how many times an operation is attempted and how
// the wait between attempts grows. Zero fields take defaults.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func (cfg RetryConfig) normalized() RetryConfig {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	return cfg
}

// delayFor returns the wait before the given retry (1-based). The delay
// doubles per attempt, capped at MaxDelay, and the actual wait is drawn
// uniformly from [delay/2, delay) so synchronized callers spread out.
func (cfg RetryConfig) delayFor(attempt int) time.Duration {
	delay := cfg.InitialDelay << (attempt - 1)
	if delay > cfg.MaxDelay || delay <= 0 {
		delay = cfg.MaxDelay
	}
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// Retry runs fn until it succeeds, MaxAttempts is exhausted, or ctx is
// cancelled. The name labels log lines and the final error.
func Retry(ctx context.Context, name string, cfg RetryConfig, fn func() error) error {
	cfg = cfg.normalized()
	log := slog.Default().With("operation", name)

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 {
				log.Info("recovered after retries", "attempts", attempt)
			}
			return nil
		}
		if attempt >= cfg.MaxAttempts {
			return fmt.Errorf("%s failed after %d attempts: %w", name, attempt, err)
		}

		wait := cfg.delayFor(attempt)
		log.Warn("attempt failed, backing off",
			"attempt", attempt,
			"error", err,
			"backoff", wait,
		)

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s aborted: %w", name, ctx.Err())
		}
	}
}
