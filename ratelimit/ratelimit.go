// Package ratelimit enforces minimum spacing and an hourly budget for
// outbound requests, keyed per host.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces requests to each host by at least a configured interval and
// caps the number of requests per host per hour. Safe for concurrent use;
// callers targeting the same host serialize on that host's entry.
type Limiter struct {
	interval   time.Duration
	maxPerHour int

	mu    sync.Mutex
	hosts map[string]*hostState
}

type hostState struct {
	mu     sync.Mutex
	last   time.Time
	budget *rate.Limiter
}

// New builds a limiter. interval is the minimum spacing between requests to
// one host; maxPerHour caps the per-host request budget.
func New(interval time.Duration, maxPerHour int) *Limiter {
	if maxPerHour <= 0 {
		maxPerHour = 1
	}
	return &Limiter{
		interval:   interval,
		maxPerHour: maxPerHour,
		hosts:      make(map[string]*hostState),
	}
}

// Wait blocks until the next request to host is permissible. crawlDelay is
// the robots.txt override for this host; it can only lengthen the enforced
// interval, never shorten it. Wait only fails when ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context, host string, crawlDelay time.Duration) error {
	state := l.state(host)

	state.mu.Lock()
	defer state.mu.Unlock()

	if err := state.budget.Wait(ctx); err != nil {
		return err
	}

	interval := l.interval
	if crawlDelay > interval {
		interval = crawlDelay
	}
	if !state.last.IsZero() {
		if elapsed := time.Since(state.last); elapsed < interval {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval - elapsed):
			}
		}
	}

	state.last = time.Now()
	return nil
}

func (l *Limiter) state(host string) *hostState {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.hosts[host]
	if !ok {
		state = &hostState{
			budget: rate.NewLimiter(rate.Limit(float64(l.maxPerHour)/3600.0), l.maxPerHour),
		}
		l.hosts[host] = state
	}
	return state
}
