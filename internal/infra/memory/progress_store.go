package memory

import (
	"context"
	"sync"
	"time"

	"phiz-quiz-service/internal/domain"
)

// ProgressStore keeps result logs and counters in memory. A single mutex covers both,
// so readers never see counters without the matching result.
type ProgressStore struct {
	mu       sync.RWMutex
	results  map[string][]domain.QuizResult
	progress map[string]domain.Progress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		results:  make(map[string][]domain.QuizResult),
		progress: make(map[string]domain.Progress),
	}
}

func (s *ProgressStore) CommitResult(_ context.Context, result domain.QuizResult) (domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.progress[result.UserID]
	p.UserID = result.UserID
	p.TotalScore += result.Score
	p.TestsCompleted++
	s.progress[result.UserID] = p
	s.results[result.UserID] = append(s.results[result.UserID], result)
	return p, nil
}

func (s *ProgressStore) TouchActivity(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.progress[userID]
	p.UserID = userID
	p.LastActivityAt = at
	s.progress[userID] = p
	return nil
}

func (s *ProgressStore) GetProgress(_ context.Context, userID string) (domain.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[userID]
	if !ok {
		return domain.Progress{UserID: userID}, nil
	}
	return p, nil
}

func (s *ProgressStore) ListResults(_ context.Context, userID string) ([]domain.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.QuizResult(nil), s.results[userID]...), nil
}
