package task

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests.
type MemoryStore struct {
	mu    sync.Mutex
	tasks map[string]*Task
	users map[string]*User
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]*Task),
		users: make(map[string]*User),
	}
}

func (m *MemoryStore) CreateTask(_ context.Context, t *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.tasks[cp.ID] = &cp
	t.CreatedAt = cp.CreatedAt
	t.UpdatedAt = cp.UpdatedAt
	return nil
}

func (m *MemoryStore) FindTask(_ context.Context, id string) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemoryStore) UpdateTask(_ context.Context, t *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return ErrNotFound
	}
	cp := *t
	cp.UpdatedAt = time.Now().UTC()
	m.tasks[cp.ID] = &cp
	return nil
}

func (m *MemoryStore) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *MemoryStore) ListRelated(_ context.Context, userID string) ([]*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []*Task
	for _, t := range m.tasks {
		if t.CreatorID == userID || t.AssigneeID == userID {
			cp := *t
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (m *MemoryStore) FindUser(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.TrimSpace(strings.ToLower(email))
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.users[cp.ID] = &cp
	return nil
}
