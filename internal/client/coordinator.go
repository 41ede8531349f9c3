// Package client implements the browser/SDK side of the session lifecycle:
// token storage and the single-flight refresh coordinator.
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrLoggedOut is returned once the coordinator has torn the session down.
// Callers must send the user back through login; the coordinator will not
// retry on its own.
var ErrLoggedOut = errors.New("client: session terminated")

// State is the coordinator's lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRefreshing
	StateFailed
)

// Tokens is the client-held token pair plus the local access expiry used
// for the cheap staleness check.
type Tokens struct {
	Access          string
	AccessExpiresAt time.Time
	Refresh         string
}

// Refresher performs the network refresh call against the token endpoint.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (Tokens, error)
}

// Storage holds the tokens between requests. It must be cleared completely
// on logout or forced teardown.
type Storage interface {
	Load() (Tokens, bool)
	Save(Tokens)
	Clear()
}

const defaultExpirySkew = 10 * time.Second

// Coordinator hands out a valid access token to concurrent request paths.
// When several callers race against an expiring token, exactly one refresh
// call is issued; every caller waiting on that flight receives the same new
// token or the same failure. A failed refresh tears the session down exactly
// once and parks the coordinator in StateFailed until Reset.
type Coordinator struct {
	refresher Refresher
	storage   Storage
	onLogout  func(reason error)
	skew      time.Duration
	now       func() time.Time

	group singleflight.Group

	mu    sync.Mutex
	state State
}

// CoordinatorOption configures Coordinator.
type CoordinatorOption func(*Coordinator)

// WithLogoutHandler registers the forced-teardown callback. It fires at most
// once per failure event regardless of how many callers were queued.
func WithLogoutHandler(fn func(reason error)) CoordinatorOption {
	return func(c *Coordinator) { c.onLogout = fn }
}

// WithExpirySkew widens the local staleness margin so tokens are refreshed
// slightly before their wall-clock expiry.
func WithExpirySkew(skew time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if skew >= 0 {
			c.skew = skew
		}
	}
}

// WithNow overrides the time source (useful for tests).
func WithNow(fn func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCoordinator constructs a Coordinator around a refresher and storage.
func NewCoordinator(refresher Refresher, storage Storage, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		refresher: refresher,
		storage:   storage,
		skew:      defaultExpirySkew,
		now:       time.Now,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset installs a fresh token pair after login and returns the coordinator
// to StateIdle.
func (c *Coordinator) Reset(tokens Tokens) {
	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
	c.storage.Save(tokens)
}

// Token returns an access token valid at the time of the call, refreshing
// through a single flight when the stored one is stale. A caller whose
// context ends stops waiting, but the refresh in flight always completes to
// success or failure.
func (c *Coordinator) Token(ctx context.Context) (string, error) {
	if c.State() == StateFailed {
		return "", ErrLoggedOut
	}
	tokens, ok := c.storage.Load()
	if !ok {
		return "", ErrLoggedOut
	}
	if c.fresh(tokens) {
		return tokens.Access, nil
	}

	ch := c.group.DoChan("refresh", func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Coordinator) refresh(ctx context.Context) (string, error) {
	// Re-check under the flight: a caller queued behind a finished refresh
	// must not trigger a second one.
	tokens, ok := c.storage.Load()
	if !ok {
		return "", c.teardown(ErrLoggedOut)
	}
	if c.fresh(tokens) {
		return tokens.Access, nil
	}

	c.setState(StateRefreshing)
	next, err := c.refresher.Refresh(ctx, tokens.Refresh)
	if err != nil {
		return "", c.teardown(err)
	}
	c.storage.Save(next)
	c.setState(StateIdle)
	return next.Access, nil
}

// teardown clears storage, parks the coordinator in StateFailed and fires
// the logout handler. It runs inside the single flight, so one expiry event
// produces one teardown no matter how many callers were waiting.
func (c *Coordinator) teardown(reason error) error {
	c.storage.Clear()
	c.setState(StateFailed)
	if c.onLogout != nil {
		c.onLogout(reason)
	}
	return reason
}

func (c *Coordinator) fresh(tokens Tokens) bool {
	if tokens.Access == "" {
		return false
	}
	return c.now().Add(c.skew).Before(tokens.AccessExpiresAt)
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
