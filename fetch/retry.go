package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// jitterFraction spreads retry delays by ±20% so concurrent targets do not
// retry in lockstep.
const jitterFraction = 0.2

// Executor retries an operation with bounded exponential backoff. Only
// errors reported retryable by the classifier consume an attempt; permanent
// errors return immediately.
type Executor struct {
	maxRetries int
	baseDelay  time.Duration
	factor     float64
	maxDelay   time.Duration
	jitter     bool
}

// NewExecutor builds an executor. maxRetries is the number of additional
// attempts after the first; the delay before retry n is
// baseDelay * factor^(n-1), capped at maxDelay.
func NewExecutor(maxRetries int, baseDelay time.Duration, factor float64, maxDelay time.Duration) *Executor {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	if factor < 1.0 {
		factor = 1.0
	}
	return &Executor{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		factor:     factor,
		maxDelay:   maxDelay,
		jitter:     true,
	}
}

// Do runs op until it succeeds, fails permanently, exhausts retries, or ctx
// is cancelled. Exhaustion returns the last error annotated with the attempt
// count.
func (e *Executor) Do(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.baseDelay
	policy.Multiplier = e.factor
	policy.MaxElapsedTime = 0
	if e.maxDelay > 0 {
		policy.MaxInterval = e.maxDelay
	}
	if e.jitter {
		policy.RandomizationFactor = jitterFraction
	} else {
		policy.RandomizationFactor = 0
	}

	wrapped := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(e.maxRetries)), ctx)

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		err := op()
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, wrapped)

	if err == nil {
		return nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}
