package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore is an in-memory implementation of driven.SessionStore.
// It is the default store: sessions live for the process lifetime only.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
	}
}

// Get retrieves a session by key.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := cloneSession(session)
	return &copied, nil
}

// Put stores a session, replacing any previous state.
func (s *SessionStore) Put(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = cloneSession(*session)
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// DeleteIdleSince removes sessions last updated before the cutoff.
func (s *SessionStore) DeleteIdleSince(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Close releases store resources (no-op for memory store).
func (s *SessionStore) Close() error {
	return nil
}

// cloneSession copies a session deeply enough that callers and the store
// never share a turn slice.
func cloneSession(session domain.Session) domain.Session {
	if session.Turns != nil {
		turns := make([]domain.Turn, len(session.Turns))
		copy(turns, session.Turns)
		session.Turns = turns
	}
	return session
}
