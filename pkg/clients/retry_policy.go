package clients

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy defines retry behavior with exponential backoff.
type RetryPolicy struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	Multiplier      float64
	RandomizeFactor float64
}

// NewRetryPolicy creates a retry policy with exponential backoff.
func NewRetryPolicy(maxAttempts int, initialDelay time.Duration) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     maxAttempts,
		InitialDelay:    initialDelay,
		MaxDelay:        5 * time.Minute,
		Multiplier:      2.0,
		RandomizeFactor: 0.25,
	}
}

// DefaultFetchPolicy is the data-endpoint policy: five attempts total,
// doubling delays. Exhaustion escalates the rate-limit error to fatal.
func DefaultFetchPolicy() *RetryPolicy {
	return NewRetryPolicy(5, time.Second)
}

// Execute runs fn, retrying every failure up to MaxAttempts.
func (rp *RetryPolicy) Execute(ctx context.Context, fn func() error) error {
	return rp.ExecuteWithCondition(ctx, fn, func(error) bool { return true })
}

// ExecuteWithCondition runs fn, retrying only while shouldRetry accepts
// the error. A rejected error propagates immediately without consuming
// further attempts.
func (rp *RetryPolicy) ExecuteWithCondition(ctx context.Context, fn func() error, shouldRetry func(error) bool) error {
	var lastErr error

	for attempt := 0; attempt < rp.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		// Don't retry on the last attempt
		if attempt == rp.MaxAttempts-1 {
			break
		}

		delay := rp.calculateDelay(attempt)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", rp.MaxAttempts, lastErr)
}

// calculateDelay calculates the delay for a given attempt.
func (rp *RetryPolicy) calculateDelay(attempt int) time.Duration {
	delay := float64(rp.InitialDelay) * math.Pow(rp.Multiplier, float64(attempt))

	if delay > float64(rp.MaxDelay) {
		delay = float64(rp.MaxDelay)
	}

	// Jitter
	if rp.RandomizeFactor > 0 {
		delta := delay * rp.RandomizeFactor
		delay = delay - delta + rand.Float64()*2*delta
	}

	return time.Duration(delay)
}

// GetDelay returns the delay for a specific attempt (for testing/preview).
func (rp *RetryPolicy) GetDelay(attempt int) time.Duration {
	return rp.calculateDelay(attempt)
}
