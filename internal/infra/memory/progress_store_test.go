package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"phiz-quiz-service/internal/domain"
)

func TestProgressStoreCommitsResultWithCounters(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()

	p, err := store.CommitResult(ctx, domain.QuizResult{ID: "r1", UserID: "u1", Score: 60, TotalQuestions: 5})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if p.TotalScore != 60 || p.TestsCompleted != 1 {
		t.Fatalf("unexpected progress %+v", p)
	}
	p, _ = store.CommitResult(ctx, domain.QuizResult{ID: "r2", UserID: "u1", Score: 50, TotalQuestions: 5})
	if p.TotalScore != 110 || p.TestsCompleted != 2 {
		t.Fatalf("unexpected progress %+v", p)
	}

	results, _ := store.ListResults(ctx, "u1")
	if len(results) != 2 || results[1].ID != "r2" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestProgressStoreConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.CommitResult(ctx, domain.QuizResult{UserID: "u1", Score: 10, TotalQuestions: 5})
		}()
	}
	wg.Wait()

	p, _ := store.GetProgress(ctx, "u1")
	results, _ := store.ListResults(ctx, "u1")
	if p.TestsCompleted != 50 || p.TotalScore != 500 || len(results) != 50 {
		t.Fatalf("lost updates: progress %+v, %d results", p, len(results))
	}
}

func TestProgressStoreTouchActivity(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	if err := store.TouchActivity(ctx, "u1", at); err != nil {
		t.Fatalf("touch: %v", err)
	}
	p, _ := store.GetProgress(ctx, "u1")
	if !p.LastActivityAt.Equal(at) {
		t.Fatalf("expected last activity %v, got %v", at, p.LastActivityAt)
	}
}

func TestPreferencesStoreDefaultsAndSave(t *testing.T) {
	ctx := context.Background()
	store := NewPreferencesStore()

	prefs, err := store.GetPreferences(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !prefs.StudyReminders || prefs.ReminderHour != 18 {
		t.Fatalf("expected defaults, got %+v", prefs)
	}

	prefs.StudyReminders = false
	prefs.ReminderDays = []time.Weekday{time.Saturday}
	if err := store.SavePreferences(ctx, "u1", prefs); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := store.GetPreferences(ctx, "u1")
	if got.StudyReminders || !got.RemindsOn(time.Saturday) || got.RemindsOn(time.Monday) {
		t.Fatalf("unexpected saved prefs %+v", got)
	}
}
