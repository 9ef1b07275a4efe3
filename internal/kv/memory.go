package kv

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory. Useful for tests and ephemeral sessions.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	value, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return nil, &StorageError{Op: "get", Backend: "memory", Key: key, Err: ErrNotFound}
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return &StorageError{Op: "put", Backend: "memory", Key: key, Err: err}
	}
	s.mu.Lock()
	s.values[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
