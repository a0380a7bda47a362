package auth

import (
	"sync"
	"time"
)

// Session is the per-browser state behind one cookie. It lives in process
// memory only; a restart logs everyone out.
type Session struct {
	Authenticated bool
	Subject       string
	ExpiresAt     time.Time
}

// Store holds sessions keyed by session id. The narrow surface keeps the
// backing store swappable without touching route logic.
type Store interface {
	Get(id string) (Session, bool)
	Put(id string, session Session)
	Delete(id string)
}

// MemoryStore is a mutex-guarded in-memory session table. Acceptable only
// because the service is single-instance.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Get returns the session for id. Expired sessions are dropped on read.
func (s *MemoryStore) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	if !session.ExpiresAt.IsZero() && time.Now().After(session.ExpiresAt) {
		delete(s.sessions, id)
		return Session{}, false
	}
	return session, true
}

// Put stores a session.
func (s *MemoryStore) Put(id string, session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = session
}

// Delete removes a session.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
