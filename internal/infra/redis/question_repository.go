package redis

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"phiz-quiz-service/internal/domain"
	"phiz-quiz-service/internal/infra/memory"
)

const poolKey = "questions:pool"

// QuestionRepository caches the question pool in Redis and falls back to a loader on cache miss.
// Questions are stored as: HSET questions:pool {questionID} {question JSON}
type QuestionRepository struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	if pool, ok := r.cached(ctx); ok {
		return pool, nil
	}

	result, err, _ := r.sf.Do(poolKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pool, ok := r.cached(ctx); ok {
			return pool, nil
		}

		pool, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		if err := r.store(ctx, pool); err != nil {
			log.Printf("cache question pool: %v", err)
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	pool := result.([]domain.Question)
	out := make([]domain.Question, len(pool))
	copy(out, pool)
	return out, nil
}

// Invalidate drops the cached pool so the next read goes to the loader.
func (r *QuestionRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, poolKey).Err()
}

func (r *QuestionRepository) cached(ctx context.Context) ([]domain.Question, bool) {
	raw, err := r.client.HGetAll(ctx, poolKey).Result()
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	pool := make([]domain.Question, 0, len(raw))
	for _, id := range ids {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw[id]), &q); err != nil {
			log.Printf("skip cached question %s: %v", id, err)
			continue
		}
		pool = append(pool, q)
	}
	return pool, len(pool) > 0
}

func (r *QuestionRepository) store(ctx context.Context, pool []domain.Question) error {
	if len(pool) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(pool))
	for _, q := range pool {
		b, err := json.Marshal(q)
		if err != nil {
			return err
		}
		fields[q.ID] = b
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, poolKey)
	pipe.HSet(ctx, poolKey, fields)
	if ttl := r.ttlWithJitter(); ttl > 0 {
		pipe.Expire(ctx, poolKey, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
