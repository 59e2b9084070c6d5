package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"phiz-quiz-service/internal/domain"
)

const (
	fieldTotalScore     = "totalScore"
	fieldTestsCompleted = "testsCompleted"
	fieldLastActivity   = "lastActivityAt"
)

// ProgressStore keeps results and counters in Redis.
// Counters live in:  HSET user:{userID} totalScore|testsCompleted|lastActivityAt
// Results live in:   RPUSH user:{userID}:grades {result JSON}
type ProgressStore struct {
	client *redis.Client
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

// CommitResult appends the result and bumps both counters inside one MULTI/EXEC.
func (s *ProgressStore) CommitResult(ctx context.Context, result domain.QuizResult) (domain.Progress, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("encode result: %w", err)
	}

	var total, tests *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, gradesKey(result.UserID), payload)
		total = pipe.HIncrBy(ctx, userKey(result.UserID), fieldTotalScore, int64(result.Score))
		tests = pipe.HIncrBy(ctx, userKey(result.UserID), fieldTestsCompleted, 1)
		return nil
	})
	if err != nil {
		return domain.Progress{}, err
	}
	return domain.Progress{
		UserID:         result.UserID,
		TotalScore:     int(total.Val()),
		TestsCompleted: int(tests.Val()),
	}, nil
}

func (s *ProgressStore) TouchActivity(ctx context.Context, userID string, at time.Time) error {
	return s.client.HSet(ctx, userKey(userID), fieldLastActivity, at.UTC().Format(time.RFC3339Nano)).Err()
}

func (s *ProgressStore) GetProgress(ctx context.Context, userID string) (domain.Progress, error) {
	fields, err := s.client.HGetAll(ctx, userKey(userID)).Result()
	if err != nil {
		return domain.Progress{}, err
	}
	p := domain.Progress{UserID: userID}
	if v, ok := fields[fieldTotalScore]; ok {
		if p.TotalScore, err = strconv.Atoi(v); err != nil {
			return domain.Progress{}, fmt.Errorf("parse %s: %w", fieldTotalScore, err)
		}
	}
	if v, ok := fields[fieldTestsCompleted]; ok {
		if p.TestsCompleted, err = strconv.Atoi(v); err != nil {
			return domain.Progress{}, fmt.Errorf("parse %s: %w", fieldTestsCompleted, err)
		}
	}
	if v, ok := fields[fieldLastActivity]; ok {
		if p.LastActivityAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return domain.Progress{}, fmt.Errorf("parse %s: %w", fieldLastActivity, err)
		}
	}
	return p, nil
}

func (s *ProgressStore) ListResults(ctx context.Context, userID string) ([]domain.QuizResult, error) {
	raw, err := s.client.LRange(ctx, gradesKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	results := make([]domain.QuizResult, 0, len(raw))
	for _, item := range raw {
		var r domain.QuizResult
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}

func userKey(userID string) string {
	return "user:" + userID
}

func gradesKey(userID string) string {
	return "user:" + userID + ":grades"
}
