package memory

import (
	"sync"

	"phiz-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Add(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
