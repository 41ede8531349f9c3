package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests and the demo client. All
// operations hold one mutex, which trivially satisfies the atomic
// replace-on-match contract for Swap.
type MemoryStore struct {
	mu     sync.Mutex
	byID   map[string]*Session
	byUser map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*Session),
		byUser: make(map[string]string),
	}
}

func (m *MemoryStore) Replace(_ context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.byUser[sess.UserID]; ok {
		delete(m.byID, prev)
	}
	cp := *sess
	m.byID[cp.ID] = &cp
	m.byUser[cp.UserID] = cp.ID
	return nil
}

func (m *MemoryStore) Find(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (m *MemoryStore) Swap(_ context.Context, id, oldHash string, repl *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.byID[id]
	if !ok || sess.TokenHash != oldHash {
		return ErrInvalidToken
	}
	delete(m.byID, id)
	delete(m.byUser, sess.UserID)
	cp := *repl
	m.byID[cp.ID] = &cp
	m.byUser[cp.UserID] = cp.ID
	return nil
}

func (m *MemoryStore) DeleteByUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byUser[userID]; ok {
		delete(m.byID, id)
		delete(m.byUser, userID)
	}
	return nil
}

func (m *MemoryStore) Touch(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	if at.After(sess.LastActivity) {
		sess.LastActivity = at
	}
	return nil
}
