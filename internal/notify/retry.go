package notify

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// Truncated exponential backoff parameters for delivery retries.
const (
	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0
)

// Delay returns the backoff to wait after the given failed attempt
// (1-based). Pure function of the attempt count so tests never sleep;
// jitter is applied separately by the Retrier.
func Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(backoffInitial) * math.Pow(backoffMultiplier, float64(attempt-1))
	if d > float64(backoffMax) {
		return backoffMax
	}
	return time.Duration(d)
}

// Retrier wraps a Notifier with bounded retries. On transient delivery
// failure it waits Delay(attempt) with ±25 % jitter and tries again, up to
// maxAttempts total attempts. Exhaustion returns the last error.
type Retrier struct {
	next        Notifier
	maxAttempts int

	// jitter and sleep are injectable for deterministic tests.
	jitter func(time.Duration) time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a Retrier performing at most maxAttempts attempts.
func NewRetrier(next Notifier, maxAttempts int) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrier{
		next:        next,
		maxAttempts: maxAttempts,
		jitter:      defaultJitter,
		sleep:       sleepCtx,
	}
}

// Send implements Notifier.
func (r *Retrier) Send(ctx context.Context, e Event) error {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		lastErr = r.next.Send(ctx, e)
		if lastErr == nil {
			return nil
		}
		if attempt == r.maxAttempts {
			break
		}

		wait := r.jitter(Delay(attempt))
		slog.Warn("notify: delivery failed, will retry",
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"retry_in", wait,
			"err", lastErr,
		)
		if err := r.sleep(ctx, wait); err != nil {
			return fmt.Errorf("notify: retry interrupted: %w", err)
		}
	}
	return fmt.Errorf("notify: %d attempt(s) exhausted: %w", r.maxAttempts, lastErr)
}

// defaultJitter applies ±25 % jitter to d.
func defaultJitter(d time.Duration) time.Duration {
	j := time.Duration(float64(d) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	if d+j < 0 {
		return 0
	}
	return d + j
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
