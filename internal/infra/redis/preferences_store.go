package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"phiz-quiz-service/internal/domain"
)

// PreferencesStore keeps one JSON document per user under prefs:{userID}.
type PreferencesStore struct {
	client *redis.Client
}

func NewPreferencesStore(client *redis.Client) *PreferencesStore {
	return &PreferencesStore{client: client}
}

func (s *PreferencesStore) GetPreferences(ctx context.Context, userID string) (domain.NotificationPreferences, error) {
	raw, err := s.client.Get(ctx, prefsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.DefaultPreferences(), nil
	}
	if err != nil {
		return domain.NotificationPreferences{}, err
	}
	prefs := domain.DefaultPreferences()
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return domain.NotificationPreferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	return prefs, nil
}

func (s *PreferencesStore) SavePreferences(ctx context.Context, userID string, prefs domain.NotificationPreferences) error {
	b, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, prefsKey(userID), b, 0).Err()
}

func prefsKey(userID string) string {
	return "prefs:" + userID
}
