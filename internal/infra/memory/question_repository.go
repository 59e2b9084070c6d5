package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"phiz-quiz-service/internal/domain"
)

const poolKey = "questions"

// QuestionLoader fetches the question pool from a backing store (e.g., document DB).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionRepository caches the question pool with TTL to avoid repeated DB hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	pool      []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	if pool, ok := r.cached(r.clock()); ok {
		return pool, nil
	}

	result, err, _ := r.sf.Do(poolKey, func() (interface{}, error) {
		now := r.clock()
		if pool, ok := r.cached(now); ok {
			return pool, nil
		}

		pool, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.pool = pool
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return copyPool(result.([]domain.Question)), nil
}

// Invalidate drops the cached pool.
func (r *QuestionRepository) Invalidate() {
	r.mu.Lock()
	r.pool = nil
	r.expiresAt = time.Time{}
	r.mu.Unlock()
}

func (r *QuestionRepository) cached(now time.Time) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.pool != nil && r.expiresAt.After(now) {
		return copyPool(r.pool), true
	}
	return nil, false
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a simple loader backed by an in-memory slice (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(context.Context) ([]domain.Question, error) {
	return copyPool(l.questions), nil
}

func copyPool(pool []domain.Question) []domain.Question {
	out := make([]domain.Question, len(pool))
	copy(out, pool)
	return out
}
