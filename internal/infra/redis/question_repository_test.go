package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"phiz-quiz-service/internal/domain"
	"phiz-quiz-service/internal/infra/memory"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, client := newTestRedis(t)

	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(samplePool())}
	repo := NewQuestionRepository(client, loader, time.Minute)

	pool, err := repo.ListQuestions(context.Background())
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(pool) != 2 || loader.calls != 1 {
		t.Fatalf("expected 2 questions from one load, got %d after %d calls", len(pool), loader.calls)
	}
	if !mr.Exists(poolKey) {
		t.Fatalf("expected %s to be cached", poolKey)
	}
	if ttl := mr.TTL(poolKey); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	pool, _ = repo.ListQuestions(context.Background())
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if pool[0].ID != "q1" || pool[0].Options[pool[0].CorrectIndex] != "4" {
		t.Fatalf("cached question lost fields: %+v", pool[0])
	}
}

func TestQuestionRepositoryReloadsAfterInvalidate(t *testing.T) {
	_, client := newTestRedis(t)
	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(samplePool())}
	repo := NewQuestionRepository(client, loader, time.Minute)

	_, _ = repo.ListQuestions(context.Background())
	if err := repo.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.ListQuestions(context.Background())
	if loader.calls != 2 {
		t.Fatalf("expected reload, loader calls=%d", loader.calls)
	}
}

func TestQuestionRepositoryPropagatesLoaderError(t *testing.T) {
	_, client := newTestRedis(t)
	boom := errors.New("boom")
	repo := NewQuestionRepository(client, errLoader{boom}, time.Minute)
	if _, err := repo.ListQuestions(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
}

type countingLoader struct {
	memory.QuestionLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.QuestionLoader.LoadQuestions(ctx)
}

type errLoader struct{ err error }

func (l errLoader) LoadQuestions(context.Context) ([]domain.Question, error) {
	return nil, l.err
}

func samplePool() []domain.Question {
	return []domain.Question{
		{
			ID:           "q1",
			Prompt:       "What is 2 + 2?",
			Options:      []string{"3", "4", "5", "22"},
			CorrectIndex: 1,
			Points:       20,
		},
		{
			ID:           "q2",
			Prompt:       "What is the SI unit of force?",
			Options:      []string{"Joule", "Watt", "Newton", "Pascal"},
			CorrectIndex: 2,
			Difficulty:   domain.DifficultyEasy,
		},
	}
}
