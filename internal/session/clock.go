package session

import (
	"context"
	"sync"
	"time"
)

const defaultTouchInterval = 5 * time.Second

// Within reports whether lastActivity is still inside the sliding window at
// the given instant.
func Within(lastActivity, now time.Time, window time.Duration) bool {
	if lastActivity.IsZero() {
		return false
	}
	return now.Sub(lastActivity) <= window
}

// Clock tracks observed session activity. Writes are coalesced so a burst of
// authenticated requests produces at most one store update per interval per
// session.
type Clock struct {
	store    Store
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	touched map[string]time.Time
}

// ClockOption configures Clock.
type ClockOption func(*Clock)

// WithTouchInterval overrides the write coalescing interval.
func WithTouchInterval(interval time.Duration) ClockOption {
	return func(c *Clock) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithClockTime overrides the time source (useful for tests).
func WithClockTime(fn func() time.Time) ClockOption {
	return func(c *Clock) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewClock constructs a Clock over the given store.
func NewClock(store Store, opts ...ClockOption) *Clock {
	c := &Clock{
		store:    store,
		interval: defaultTouchInterval,
		now:      time.Now,
		touched:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe records activity for the session. Activity is event-driven: any
// authenticated request calls Observe, there is no background timer. The
// store write is skipped when the session was already touched within the
// coalescing interval.
func (c *Clock) Observe(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	now := c.now().UTC()

	c.mu.Lock()
	if last, ok := c.touched[sessionID]; ok && now.Sub(last) < c.interval {
		c.mu.Unlock()
		return nil
	}
	c.touched[sessionID] = now
	c.mu.Unlock()

	return c.store.Touch(ctx, sessionID, now)
}

// Forget drops the coalescing entry for a session, e.g. after logout.
func (c *Clock) Forget(sessionID string) {
	c.mu.Lock()
	delete(c.touched, sessionID)
	c.mu.Unlock()
}
