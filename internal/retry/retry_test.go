package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"shortforge/internal/retry"
)

func noSleep() (retry.Option, *[]time.Duration) {
	delays := &[]time.Duration{}
	opt := retry.WithSleeper(func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	})
	return opt, delays
}

func TestDoSucceedsFirstTry(t *testing.T) {
	sleeper, delays := noSleep()
	calls := 0
	err := retry.Do(context.Background(), retry.Policy{Attempts: 3, MinDelay: time.Millisecond}, func(context.Context) error {
		calls++
		return nil
	}, sleeper)
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if len(*delays) != 0 {
		t.Fatalf("expected no sleeps, got %d", len(*delays))
	}
}

func TestDoRetriesUntilExhausted(t *testing.T) {
	sleeper, delays := noSleep()
	boom := errors.New("boom")
	calls := 0
	err := retry.Do(context.Background(), retry.Policy{
		Attempts: 3,
		MinDelay: 250 * time.Millisecond,
		MaxDelay: 2 * time.Second,
	}, func(context.Context) error {
		calls++
		return boom
	}, sleeper, retry.WithRand(func() float64 { return 0.5 }))
	if !errors.Is(err, boom) {
		t.Fatalf("expected final error boom, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(*delays) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(*delays))
	}
	// Zero jitter with exponential doubling from 250ms.
	if (*delays)[0] != 250*time.Millisecond || (*delays)[1] != 500*time.Millisecond {
		t.Fatalf("unexpected delays: %v", *delays)
	}
}

func TestDoCapsDelayAtMax(t *testing.T) {
	sleeper, delays := noSleep()
	boom := errors.New("boom")
	_ = retry.Do(context.Background(), retry.Policy{
		Attempts: 5,
		MinDelay: time.Second,
		MaxDelay: 2 * time.Second,
	}, func(context.Context) error {
		return boom
	}, sleeper)
	for i, d := range *delays {
		if d > 2*time.Second {
			t.Fatalf("delay %d exceeds cap: %v", i, d)
		}
	}
	if last := (*delays)[len(*delays)-1]; last != 2*time.Second {
		t.Fatalf("expected final delay at cap, got %v", last)
	}
}

func TestDoJitterSpreadsAroundBase(t *testing.T) {
	sleeper, delays := noSleep()
	boom := errors.New("boom")
	_ = retry.Do(context.Background(), retry.Policy{
		Attempts: 2,
		MinDelay: time.Second,
		MaxDelay: 2 * time.Second,
		Jitter:   0.5,
	}, func(context.Context) error {
		return boom
	}, sleeper, retry.WithRand(func() float64 { return 0 }))
	// rand=0 with jitter 0.5 gives the lowest factor, 0.75.
	if got := (*delays)[0]; got != 750*time.Millisecond {
		t.Fatalf("expected 750ms delay, got %v", got)
	}
}

func TestDoStopsWhenShouldRetryDeclines(t *testing.T) {
	sleeper, _ := noSleep()
	fatal := errors.New("quota exceeded for today")
	calls := 0
	err := retry.Do(context.Background(), retry.Policy{
		Attempts:    4,
		MinDelay:    time.Millisecond,
		ShouldRetry: func(err error) bool { return false },
	}, func(context.Context) error {
		calls++
		return fatal
	}, sleeper)
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoValidatesPolicyEagerly(t *testing.T) {
	called := false
	fn := func(context.Context) error {
		called = true
		return nil
	}
	if err := retry.Do(context.Background(), retry.Policy{Attempts: 0}, fn); err == nil {
		t.Fatal("expected error for zero attempts")
	}
	if err := retry.Do(context.Background(), retry.Policy{Attempts: 1, Jitter: 1.5}, fn); err == nil {
		t.Fatal("expected error for out-of-range jitter")
	}
	if called {
		t.Fatal("operation must not run when the policy is invalid")
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	boom := errors.New("boom")
	calls := 0
	err := retry.Do(ctx, retry.Policy{Attempts: 5, MinDelay: time.Millisecond}, func(context.Context) error {
		calls++
		cancel()
		return boom
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation stopped retries, got %d", calls)
	}
}
