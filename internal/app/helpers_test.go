package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"phiz-quiz-service/internal/domain"
	"phiz-quiz-service/internal/infra/memory"
)

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []domain.Notification
	fails map[domain.NotificationKind]error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{fails: map[domain.NotificationKind]error{}}
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.fails[msg.Kind]; err != nil {
		return err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) byKind(kind domain.NotificationKind) []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.Notification
	for _, msg := range n.sent {
		if msg.Kind == kind {
			out = append(out, msg)
		}
	}
	return out
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *recordingNotifier) achievement(title string) int {
	count := 0
	for _, msg := range n.byKind(domain.KindAchievement) {
		if msg.Data["title"] == title {
			count++
		}
	}
	return count
}

// flakyProgressStore wraps the in-memory store with switchable failures.
type flakyProgressStore struct {
	*memory.ProgressStore
	mu         sync.Mutex
	commitErr  error
	touchErr   error
	touchCalls int
}

func newFlakyProgressStore() *flakyProgressStore {
	return &flakyProgressStore{ProgressStore: memory.NewProgressStore()}
}

func (s *flakyProgressStore) CommitResult(ctx context.Context, result domain.QuizResult) (domain.Progress, error) {
	s.mu.Lock()
	err := s.commitErr
	s.mu.Unlock()
	if err != nil {
		return domain.Progress{}, err
	}
	return s.ProgressStore.CommitResult(ctx, result)
}

func (s *flakyProgressStore) TouchActivity(ctx context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	s.touchCalls++
	err := s.touchErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.ProgressStore.TouchActivity(ctx, userID, at)
}

func (s *flakyProgressStore) setCommitErr(err error) {
	s.mu.Lock()
	s.commitErr = err
	s.mu.Unlock()
}

type failingQuestions struct{}

func (failingQuestions) ListQuestions(context.Context) ([]domain.Question, error) {
	return nil, errors.New("document store unavailable")
}

type failingSettings struct{}

func (failingSettings) QuestionCount(context.Context) (int, error) {
	return 0, errors.New("settings document missing")
}

func physicsPool(n int) []domain.Question {
	pool := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, domain.Question{
			ID:           fmt.Sprintf("q%d", i+1),
			Prompt:       fmt.Sprintf("Physics question %d?", i+1),
			Options:      []string{fmt.Sprintf("a%d", i), fmt.Sprintf("b%d", i), fmt.Sprintf("c%d", i), fmt.Sprintf("d%d", i)},
			CorrectIndex: i % 4,
			Points:       20,
			Difficulty:   domain.DifficultyMedium,
		})
	}
	return pool
}
