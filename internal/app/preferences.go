package app

import (
	"context"
	"log"

	"phiz-quiz-service/internal/domain"
)

// PreferencesStore loads and saves per-user notification preferences.
// Stores return domain.DefaultPreferences for users that never saved any.
type PreferencesStore interface {
	GetPreferences(ctx context.Context, userID string) (domain.NotificationPreferences, error)
	SavePreferences(ctx context.Context, userID string, prefs domain.NotificationPreferences) error
}

// PreferenceFilter drops notifications the recipient has switched off.
type PreferenceFilter struct {
	next  Notifier
	prefs PreferencesStore
}

func NewPreferenceFilter(next Notifier, prefs PreferencesStore) *PreferenceFilter {
	return &PreferenceFilter{next: next, prefs: prefs}
}

func (f *PreferenceFilter) Notify(ctx context.Context, n domain.Notification) error {
	if n.Recipient != domain.AudienceInstructors {
		prefs, err := f.prefs.GetPreferences(ctx, n.Recipient)
		if err != nil {
			log.Printf("load preferences for %s: %v; using defaults", n.Recipient, err)
			prefs = domain.DefaultPreferences()
		}
		if !prefs.Allows(n.Kind) {
			return nil
		}
	}
	return f.next.Notify(ctx, n)
}

// SavePreferences validates and stores a complete preferences document.
func SavePreferences(ctx context.Context, store PreferencesStore, userID string, prefs domain.NotificationPreferences) error {
	if userID == "" {
		return domain.ErrMissingIdentity
	}
	if err := prefs.Validate(); err != nil {
		return err
	}
	return store.SavePreferences(ctx, userID, prefs)
}
