package fetcher

import (
	"context"
	"math"
	"time"
)

// RetryPolicy defines the fetch retry schedule: pure exponential backoff
// with no jitter and an optional cap.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	// MaxDelay caps a single delay; zero leaves the schedule uncapped
	MaxDelay   time.Duration
	Multiplier float64
}

// NewRetryPolicy creates a doubling policy starting at initialDelay
func NewRetryPolicy(maxAttempts int, initialDelay time.Duration) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  maxAttempts,
		InitialDelay: initialDelay,
		Multiplier:   2.0,
	}
}

// DefaultRetryPolicy returns three attempts with delays of 1s then 2s
func DefaultRetryPolicy() *RetryPolicy {
	return NewRetryPolicy(3, time.Second)
}

// Delay returns the sleep after the given failed attempt (1-based)
func (rp *RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	multiplier := rp.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	delay := float64(rp.InitialDelay) * math.Pow(multiplier, float64(attempt-1))
	if rp.MaxDelay > 0 && delay > float64(rp.MaxDelay) {
		return rp.MaxDelay
	}
	if delay >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

// TotalDelay returns the worst-case time spent sleeping between attempts
func (rp *RetryPolicy) TotalDelay() time.Duration {
	var total time.Duration
	for attempt := 1; attempt < rp.MaxAttempts; attempt++ {
		d := rp.Delay(attempt)
		if total > math.MaxInt64-d {
			return time.Duration(math.MaxInt64)
		}
		total += d
	}
	return total
}

// WithMaxDelay returns a copy of the policy with a delay cap
func (rp *RetryPolicy) WithMaxDelay(max time.Duration) *RetryPolicy {
	policy := *rp
	policy.MaxDelay = max
	return &policy
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
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
