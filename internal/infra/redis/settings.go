package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const settingsKey = "settings:quiz"

// Settings reads the session size from HGET settings:quiz questionCount.
// A missing field yields the fallback.
type Settings struct {
	client   *redis.Client
	fallback int
}

func NewSettings(client *redis.Client, fallback int) *Settings {
	return &Settings{client: client, fallback: fallback}
}

func (s *Settings) QuestionCount(ctx context.Context) (int, error) {
	n, err := s.client.HGet(ctx, settingsKey, "questionCount").Int()
	if errors.Is(err, redis.Nil) {
		return s.fallback, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// SetQuestionCount stores a new session size.
func (s *Settings) SetQuestionCount(ctx context.Context, n int) error {
	return s.client.HSet(ctx, settingsKey, "questionCount", n).Err()
}
