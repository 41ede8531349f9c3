package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls int32
	delay time.Duration
	err   error
	next  Tokens
}

func (f *fakeRefresher) Refresh(_ context.Context, refreshToken string) (Tokens, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return Tokens{}, f.err
	}
	if refreshToken == "" {
		return Tokens{}, errors.New("missing refresh token")
	}
	return f.next, nil
}

func (f *fakeRefresher) callCount() int32 {
	return atomic.LoadInt32(&f.calls)
}

func staleTokens(now time.Time) Tokens {
	return Tokens{
		Access:          "stale-access",
		AccessExpiresAt: now.Add(-time.Minute),
		Refresh:         "refresh-1",
	}
}

func TestTokenReturnsFreshTokenWithoutRefresh(t *testing.T) {
	now := time.Now()
	refresher := &fakeRefresher{}
	storage := NewMemoryStorage()
	storage.Save(Tokens{Access: "good", AccessExpiresAt: now.Add(time.Hour), Refresh: "r"})

	coord := NewCoordinator(refresher, storage)
	token, err := coord.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "good", token)
	require.EqualValues(t, 0, refresher.callCount())
}

func TestSingleFlightRefresh(t *testing.T) {
	now := time.Now()
	refresher := &fakeRefresher{
		delay: 30 * time.Millisecond,
		next:  Tokens{Access: "renewed", AccessExpiresAt: now.Add(time.Hour), Refresh: "refresh-2"},
	}
	storage := NewMemoryStorage()
	storage.Save(staleTokens(now))
	coord := NewCoordinator(refresher, storage)

	const callers = 20
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for n := 0; n < callers; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], errs[n] = coord.Token(context.Background())
		}(n)
	}
	wg.Wait()

	for n := 0; n < callers; n++ {
		require.NoError(t, errs[n])
		require.Equal(t, "renewed", results[n], "caller %d", n)
	}
	require.EqualValues(t, 1, refresher.callCount(), "expected exactly one network refresh")
	require.Equal(t, StateIdle, coord.State())

	saved, ok := storage.Load()
	require.True(t, ok)
	require.Equal(t, "refresh-2", saved.Refresh, "refresh token must be the rotated one")
}

func TestFailureBroadcastAndSingleTeardown(t *testing.T) {
	now := time.Now()
	refreshErr := errors.New("refresh token rejected")
	refresher := &fakeRefresher{delay: 100 * time.Millisecond, err: refreshErr}
	storage := NewMemoryStorage()
	storage.Save(staleTokens(now))

	var logouts int32
	coord := NewCoordinator(refresher, storage, WithLogoutHandler(func(error) {
		atomic.AddInt32(&logouts, 1)
	}))

	const callers = 12
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for n := 0; n < callers; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = coord.Token(context.Background())
		}(n)
	}
	wg.Wait()

	for n := 0; n < callers; n++ {
		require.ErrorIs(t, errs[n], refreshErr, "caller %d must see the shared failure", n)
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&logouts), "teardown must fire exactly once")
	require.Equal(t, StateFailed, coord.State())

	_, ok := storage.Load()
	require.False(t, ok, "storage must be cleared on teardown")
}

func TestFailedStateRejectsUntilReset(t *testing.T) {
	now := time.Now()
	refresher := &fakeRefresher{err: errors.New("boom")}
	storage := NewMemoryStorage()
	storage.Save(staleTokens(now))
	coord := NewCoordinator(refresher, storage)

	_, err := coord.Token(context.Background())
	require.Error(t, err)
	require.Equal(t, StateFailed, coord.State())

	_, err = coord.Token(context.Background())
	require.ErrorIs(t, err, ErrLoggedOut)

	// Re-login recovers the coordinator.
	coord.Reset(Tokens{Access: "fresh", AccessExpiresAt: time.Now().Add(time.Hour), Refresh: "r2"})
	token, err := coord.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh", token)
	require.Equal(t, StateIdle, coord.State())
}

func TestCallerStopsWaitingButRefreshCompletes(t *testing.T) {
	now := time.Now()
	refresher := &fakeRefresher{
		delay: 80 * time.Millisecond,
		next:  Tokens{Access: "renewed", AccessExpiresAt: now.Add(time.Hour), Refresh: "r2"},
	}
	storage := NewMemoryStorage()
	storage.Save(staleTokens(now))
	coord := NewCoordinator(refresher, storage)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := coord.Token(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The flight keeps running; shortly after, the renewed token is stored.
	require.Eventually(t, func() bool {
		saved, ok := storage.Load()
		return ok && saved.Access == "renewed"
	}, time.Second, 10*time.Millisecond)
	require.EqualValues(t, 1, refresher.callCount())
}

func TestNoStoredTokensMeansLoggedOut(t *testing.T) {
	coord := NewCoordinator(&fakeRefresher{}, NewMemoryStorage())
	_, err := coord.Token(context.Background())
	require.ErrorIs(t, err, ErrLoggedOut)
}

func TestSequentialRefreshesEachIssueOneCall(t *testing.T) {
	now := time.Now()
	refresher := &fakeRefresher{}
	storage := NewMemoryStorage()
	storage.Save(staleTokens(now))
	coord := NewCoordinator(refresher, storage)

	for n := 1; n <= 3; n++ {
		refresher.mu.Lock()
		refresher.next = Tokens{
			Access:          fmt.Sprintf("access-%d", n),
			AccessExpiresAt: now.Add(-time.Minute), // immediately stale again
			Refresh:         fmt.Sprintf("refresh-%d", n),
		}
		refresher.mu.Unlock()

		token, err := coord.Token(context.Background())
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("access-%d", n), token)
	}
	require.EqualValues(t, 3, refresher.callCount())
}
