// Package retry runs operations with bounded attempts and jittered
// exponential backoff.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy bounds attempt counts and backoff delays for one operation.
type Policy struct {
	// Attempts is the total number of tries, including the first. Must be
	// at least 1.
	Attempts int
	// MinDelay is the backoff before the second attempt.
	MinDelay time.Duration
	// MaxDelay caps the exponential growth of the backoff.
	MaxDelay time.Duration
	// Jitter spreads the delay within [1-jitter/2, 1+jitter/2) of its base
	// value. Must be within [0, 1].
	Jitter float64
	// ShouldRetry gates retries on the error. A nil func retries every
	// error.
	ShouldRetry func(error) bool
	// OnRetry is invoked before each re-attempt sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

type options struct {
	sleep func(context.Context, time.Duration) error
	randf func() float64
}

// Option customizes timing sources, used by tests.
type Option func(*options)

// WithSleeper replaces the inter-attempt sleep.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(o *options) { o.sleep = sleep }
}

// WithRand replaces the jitter source. The func must return values in
// [0, 1).
func WithRand(randf func() float64) Option {
	return func(o *options) { o.randf = randf }
}

// Do runs fn until it succeeds, the policy is exhausted, or the context is
// canceled. The last error is returned unwrapped so callers can match
// sentinels.
func Do(ctx context.Context, policy Policy, fn func(context.Context) error, opts ...Option) error {
	if policy.Attempts < 1 {
		return fmt.Errorf("retry: attempts must be at least 1, got %d", policy.Attempts)
	}
	if policy.Jitter < 0 || policy.Jitter > 1 {
		return fmt.Errorf("retry: jitter must be within [0, 1], got %v", policy.Jitter)
	}

	o := options{sleep: sleepCtx, randf: rand.Float64}
	for _, opt := range opts {
		opt(&o)
	}

	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if policy.ShouldRetry != nil && !policy.ShouldRetry(lastErr) {
			return lastErr
		}
		if attempt == policy.Attempts {
			break
		}
		delay := policy.delay(attempt, o.randf)
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, delay, lastErr)
		}
		if err := o.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

// delay computes the backoff after the given attempt: exponential doubling
// from MinDelay, capped at MaxDelay, then spread by the jitter factor.
func (p Policy) delay(attempt int, randf func() float64) time.Duration {
	base := p.MinDelay << (attempt - 1)
	if base < 0 || (p.MaxDelay > 0 && base > p.MaxDelay) {
		base = p.MaxDelay
	}
	factor := 1 - p.Jitter/2 + randf()*p.Jitter
	jittered := time.Duration(float64(base) * factor)
	if jittered < 0 {
		jittered = 0
	}
	return jittered
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
