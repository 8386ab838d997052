package repository

import (
	"context"
	"sync"
)

// MemoryTokenStore keeps tokens in process memory; they are lost on restart
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]TokenRecord
}

// NewMemoryTokenStore creates an empty in-memory store
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens: make(map[string]TokenRecord),
	}
}

// Put stores the record under key
func (s *MemoryTokenStore) Put(ctx context.Context, key string, rec TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[key] = rec
	return nil
}

// Get returns a copy of the record under key
func (s *MemoryTokenStore) Get(ctx context.Context, key string) (*TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Delete removes key
func (s *MemoryTokenStore) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[key]; !ok {
		return false, nil
	}
	delete(s.tokens, key)
	return true, nil
}

// Close is a no-op
func (s *MemoryTokenStore) Close() error {
	return nil
}
