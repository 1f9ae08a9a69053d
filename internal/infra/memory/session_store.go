package memory

import (
	"context"
	"sync"
	"time"

	"mcq-studio/internal/app"
	"mcq-studio/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions idle for longer than ttl are treated as gone; ttl <= 0 keeps them
// until deleted.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.RWMutex
	sessions map[string]storedSession
}

type storedSession struct {
	state     app.State
	touchedAt time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return NewSessionStoreWithClock(ttl, time.Now)
}

// NewSessionStoreWithClock is test-only for deterministic expiry.
func NewSessionStoreWithClock(ttl time.Duration, clock func() time.Time) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    clock,
		sessions: make(map[string]storedSession),
	}
}

func (s *SessionStore) Save(_ context.Context, state app.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[state.ID] = storedSession{state: state, touchedAt: s.clock()}
	s.sweepLocked()
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (app.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.sessions[id]
	if !ok || s.expired(stored) {
		return app.State{}, domain.ErrSessionNotFound
	}
	return stored.state, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len reports how many live sessions are held.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, stored := range s.sessions {
		if !s.expired(stored) {
			n++
		}
	}
	return n
}

func (s *SessionStore) expired(stored storedSession) bool {
	return s.ttl > 0 && !stored.touchedAt.Add(s.ttl).After(s.clock())
}

func (s *SessionStore) sweepLocked() {
	for id, stored := range s.sessions {
		if s.expired(stored) {
			delete(s.sessions, id)
		}
	}
}
