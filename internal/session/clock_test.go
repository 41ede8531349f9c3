package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

type countingStore struct {
	*MemoryStore
	mu      sync.Mutex
	touches int
}

func (c *countingStore) Touch(ctx context.Context, id string, at time.Time) error {
	c.mu.Lock()
	c.touches++
	c.mu.Unlock()
	return c.MemoryStore.Touch(ctx, id, at)
}

func (c *countingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touches
}

func TestWithin(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	window := 30 * time.Minute

	if !Within(now.Add(-29*time.Minute), now, window) {
		t.Fatal("expected activity inside window")
	}
	if !Within(now.Add(-30*time.Minute), now, window) {
		t.Fatal("boundary should still be inside the window")
	}
	if Within(now.Add(-31*time.Minute), now, window) {
		t.Fatal("expected activity outside window")
	}
	if Within(time.Time{}, now, window) {
		t.Fatal("zero last activity must not count as active")
	}
}

func TestObserveCoalescesWrites(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	clock := newFakeClock()
	sc := NewClock(store, WithClockTime(clock.Now))

	sess := &Session{ID: "s1", UserID: "u1", ExpiresAt: clock.Now().Add(time.Hour), LastActivity: clock.Now()}
	if err := store.Replace(context.Background(), sess); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	for n := 0; n < 10; n++ {
		if err := sc.Observe(context.Background(), "s1"); err != nil {
			t.Fatalf("Observe: %v", err)
		}
	}
	if got := store.count(); got != 1 {
		t.Fatalf("expected 1 coalesced touch, got %d", got)
	}

	clock.Advance(6 * time.Second)
	if err := sc.Observe(context.Background(), "s1"); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if got := store.count(); got != 2 {
		t.Fatalf("expected second touch after interval, got %d", got)
	}
}

func TestObserveUpdatesLastActivity(t *testing.T) {
	store := NewMemoryStore()
	clock := newFakeClock()
	sc := NewClock(store, WithClockTime(clock.Now))

	start := clock.Now()
	sess := &Session{ID: "s1", UserID: "u1", ExpiresAt: start.Add(time.Hour), LastActivity: start}
	if err := store.Replace(context.Background(), sess); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	clock.Advance(10 * time.Second)
	if err := sc.Observe(context.Background(), "s1"); err != nil {
		t.Fatalf("Observe: %v", err)
	}

	got, err := store.Find(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !got.LastActivity.After(start) {
		t.Fatalf("last activity was not advanced: %v", got.LastActivity)
	}
}

func TestObserveIgnoresEmptySession(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	sc := NewClock(store)
	if err := sc.Observe(context.Background(), ""); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if store.count() != 0 {
		t.Fatal("expected no touch for empty session id")
	}
}
