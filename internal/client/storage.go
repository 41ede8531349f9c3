package client

import "sync"

// MemoryStorage keeps tokens in process memory. It is the storage used by
// the CLI/demo client and by tests; a browser embedding would substitute a
// same-origin storage with the identical clear-on-teardown contract.
type MemoryStorage struct {
	mu     sync.Mutex
	tokens Tokens
	set    bool
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage constructs an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Load() (Tokens, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens, s.set
}

func (s *MemoryStorage) Save(tokens Tokens) {
	s.mu.Lock()
	s.tokens = tokens
	s.set = true
	s.mu.Unlock()
}

func (s *MemoryStorage) Clear() {
	s.mu.Lock()
	s.tokens = Tokens{}
	s.set = false
	s.mu.Unlock()
}
