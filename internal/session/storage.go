package session

import (
	"context"
	"sync"
)

// Keys under which the session is persisted in a client's storage namespace.
const (
	TokenKey = "userToken"
	UserKey  = "userData"
)

// Storage is a per-client string key/value namespace, the server-side stand-in for
// browser local storage.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Store hands out the storage namespace for a client id.
type Store interface {
	For(clientID string) Storage
}

// NewMemoryStore returns a Store backed by in-process maps, for tests and local runs.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{spaces: make(map[string]*MemoryStorage)}
}

type MemoryStore struct {
	mu     sync.Mutex
	spaces map[string]*MemoryStorage
}

func (s *MemoryStore) For(clientID string) Storage {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.spaces[clientID]
	if !ok {
		st = NewMemoryStorage()
		s.spaces[clientID] = st
	}
	return st
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

// MemoryStorage implements Storage with a map.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

func (m *MemoryStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	v, ok := m.items[key]
	m.mu.RUnlock()
	return v, ok, nil
}

func (m *MemoryStorage) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.items[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Snapshot copies the current contents. Useful for tests.
func (m *MemoryStorage) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.items))
	for k, v := range m.items {
		out[k] = v
	}
	return out
}
