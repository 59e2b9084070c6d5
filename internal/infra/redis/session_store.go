package redis

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"phiz-quiz-service/internal/app"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Sessions own live timers, so they stay in a local map; Redis records which
// sessions are alive and who owns them so other instances can see them.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Add(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	// best-effort liveness marker
	if err := s.client.Set(context.Background(), s.key(session.ID()), session.UserID(), s.ttl).Err(); err != nil {
		log.Printf("mark session %s live: %v", session.ID(), err)
	}
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Remove(sessionID string) {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return
	}
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

// Owner returns the user a live session belongs to, as seen by any instance.
func (s *SessionStore) Owner(ctx context.Context, sessionID string) (string, bool, error) {
	userID, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
