package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"phiz-quiz-service/internal/domain"
)

// PreferencesStore keeps notification preferences as JSONB documents.
type PreferencesStore struct {
	pool *pgxpool.Pool
}

func NewPreferencesStore(pool *pgxpool.Pool) *PreferencesStore {
	return &PreferencesStore{pool: pool}
}

func (s *PreferencesStore) GetPreferences(ctx context.Context, userID string) (domain.NotificationPreferences, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM notification_preferences WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DefaultPreferences(), nil
	}
	if err != nil {
		return domain.NotificationPreferences{}, err
	}
	prefs := domain.DefaultPreferences()
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return domain.NotificationPreferences{}, err
	}
	return prefs, nil
}

func (s *PreferencesStore) SavePreferences(ctx context.Context, userID string, prefs domain.NotificationPreferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO notification_preferences (user_id, data) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data`,
		userID, raw)
	return err
}
