package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the session entries in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	user  []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return decode(m.token, m.user)
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	user, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.token, m.user = s.Token, user
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.token, m.user = "", nil
	m.mu.Unlock()
	return nil
}
