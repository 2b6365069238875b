package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions []Session
	writes   int
}

// NewMemoryStore creates a store seeded with a copy of initial.
func NewMemoryStore(initial ...Session) *MemoryStore {
	return &MemoryStore{sessions: CloneAll(initial)}
}

// ReadAll returns a copy of the stored list.
func (s *MemoryStore) ReadAll(_ context.Context) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CloneAll(s.sessions), nil
}

// WriteAll replaces the stored list with a copy of sessions.
func (s *MemoryStore) WriteAll(_ context.Context, sessions []Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = CloneAll(sessions)
	s.writes++
	return nil
}

// Writes reports how many times WriteAll has been called.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
