package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWaitEnforcesInterval(t *testing.T) {
	limiter := New(50*time.Millisecond, 1000)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "example.test", 0); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "example.test", 0); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 45*time.Millisecond {
		t.Fatalf("second wait returned after %v, want >= ~50ms", elapsed)
	}
}

func TestWaitCrawlDelayLengthensInterval(t *testing.T) {
	limiter := New(10*time.Millisecond, 1000)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "example.test", 0); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "example.test", 80*time.Millisecond); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
		t.Fatalf("crawl-delay wait returned after %v, want >= ~80ms", elapsed)
	}
}

func TestWaitCrawlDelayNeverShortens(t *testing.T) {
	limiter := New(60*time.Millisecond, 1000)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "example.test", 0); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "example.test", 5*time.Millisecond); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("wait returned after %v, want configured interval to win", elapsed)
	}
}

func TestWaitHostsIndependent(t *testing.T) {
	limiter := New(200*time.Millisecond, 1000)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "a.test", 0); err != nil {
		t.Fatalf("wait a: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "b.test", 0); err != nil {
		t.Fatalf("wait b: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("distinct host blocked for %v", elapsed)
	}
}

func TestWaitHourlyBudgetBlocks(t *testing.T) {
	limiter := New(0, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "example.test", 0); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	// Budget of one per hour is exhausted; the second wait must block until
	// the context gives up.
	if err := limiter.Wait(ctx, "example.test", 0); err == nil {
		t.Fatalf("expected context error once hourly budget is exhausted")
	}
}

func TestWaitCancelledContext(t *testing.T) {
	limiter := New(time.Hour, 1000)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "example.test", 0); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiter.Wait(cancelled, "example.test", 0); err == nil {
		t.Fatalf("expected error from cancelled context")
	}
}
