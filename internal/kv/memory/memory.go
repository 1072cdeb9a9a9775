package memory

import (
	"context"
	"fmt"
	"sync"

	"financas/internal/kv"
)

// Store keeps blobs in process memory. Useful for tests and throwaway sessions.
type Store struct {
	mu    sync.Mutex
	items map[string][]byte

	// FailPuts makes every Put return an error; used to exercise write-failure paths.
	FailPuts bool
}

func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

// NewSeeded returns a store pre-populated with the given blobs.
func NewSeeded(seed map[string][]byte) *Store {
	s := New()
	for k, v := range seed {
		s.items[k] = append([]byte(nil), v...)
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPuts {
		return fmt.Errorf("memory store: put %q refused", key)
	}
	s.items[key] = append([]byte(nil), value...)
	return nil
}

// Keys returns the number of stored keys.
func (s *Store) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
