package memory

import (
	"context"
	"sync"
	"time"

	"phiz-quiz-service/internal/domain"
)

// PreferencesStore is an in-memory app.PreferencesStore.
type PreferencesStore struct {
	mu    sync.RWMutex
	prefs map[string]domain.NotificationPreferences
}

func NewPreferencesStore() *PreferencesStore {
	return &PreferencesStore{prefs: make(map[string]domain.NotificationPreferences)}
}

func (s *PreferencesStore) GetPreferences(_ context.Context, userID string) (domain.NotificationPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefs, ok := s.prefs[userID]
	if !ok {
		return domain.DefaultPreferences(), nil
	}
	prefs.ReminderDays = append([]time.Weekday(nil), prefs.ReminderDays...)
	return prefs, nil
}

func (s *PreferencesStore) SavePreferences(_ context.Context, userID string, prefs domain.NotificationPreferences) error {
	prefs.ReminderDays = append([]time.Weekday(nil), prefs.ReminderDays...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[userID] = prefs
	return nil
}
