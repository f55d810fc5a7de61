package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of both store tiers, used in
// unit tests and as a stand-in when no backing service is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string][]byte // accountID -> record -> value
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]map[string][]byte),
	}
}

func (s *MemoryStore) Get(_ context.Context, accountID, record string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.records[accountID][record]
	if !ok {
		return nil, ErrNotFound
	}

	// Copy so callers cannot mutate stored bytes.
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, accountID, record string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[accountID] == nil {
		s.records[accountID] = make(map[string][]byte)
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.records[accountID][record] = stored
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, accountID, record string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records[accountID], record)
	return nil
}

// Clear drops every record for the account. Used when a browsing session
// ends in tests.
func (s *MemoryStore) Clear(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, accountID)
}
