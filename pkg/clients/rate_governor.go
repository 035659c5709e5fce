package clients

import (
	"context"
	"sync"
	"time"
)

// RateGovernor enforces a minimum interval between outbound requests.
// It is an explicit instance threaded through construction, never a
// package global, so tests can inject a no-op governor. All streams
// share one governor; pacing is process-wide.
type RateGovernor struct {
	minInterval time.Duration

	mu   sync.Mutex
	next time.Time
}

// NewRateGovernor creates a governor with the given minimum interval.
// A non-positive interval disables pacing.
func NewRateGovernor(minInterval time.Duration) *RateGovernor {
	return &RateGovernor{minInterval: minInterval}
}

// Wait blocks until the caller may send its request. Each caller
// reserves the next send slot under the lock, so concurrent callers are
// serialized to one request per interval.
func (g *RateGovernor) Wait(ctx context.Context) error {
	if g.minInterval <= 0 {
		return ctx.Err()
	}

	g.mu.Lock()
	now := time.Now()
	slot := g.next
	if slot.Before(now) {
		slot = now
	}
	g.next = slot.Add(g.minInterval)
	g.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MinInterval returns the configured pacing interval.
func (g *RateGovernor) MinInterval() time.Duration {
	return g.minInterval
}
