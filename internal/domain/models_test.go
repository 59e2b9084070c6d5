package domain

import (
	"errors"
	"testing"
	"time"
)

func TestQuestionIsCorrectOnlyForCorrectIndex(t *testing.T) {
	for correct := 0; correct < 4; correct++ {
		q := Question{Prompt: "p", Options: []string{"a", "b", "c", "d"}, CorrectIndex: correct}
		if !q.Valid() {
			t.Fatalf("expected question with correct index %d to be valid", correct)
		}
		for i := 0; i < 4; i++ {
			if got := q.IsCorrect(i); got != (i == correct) {
				t.Fatalf("IsCorrect(%d) with correct %d = %v", i, correct, got)
			}
		}
	}
}

func TestQuestionValid(t *testing.T) {
	cases := []struct {
		name string
		q    Question
		want bool
	}{
		{"missing prompt", Question{Options: []string{"a", "b", "c", "d"}}, false},
		{"three options", Question{Prompt: "p", Options: []string{"a", "b", "c"}}, false},
		{"index out of range", Question{Prompt: "p", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 4}, false},
		{"negative index", Question{Prompt: "p", Options: []string{"a", "b", "c", "d"}, CorrectIndex: -1}, false},
		{"ok", Question{Prompt: "p", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 3}, true},
	}
	for _, tc := range cases {
		if got := tc.q.Valid(); got != tc.want {
			t.Fatalf("%s: Valid() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestQuestionPointValueDefaults(t *testing.T) {
	if got := (Question{}).PointValue(); got != DefaultPoints {
		t.Fatalf("expected default %d, got %d", DefaultPoints, got)
	}
	if got := (Question{Points: 35}).PointValue(); got != 35 {
		t.Fatalf("expected 35, got %d", got)
	}
}

func TestResultPercentage(t *testing.T) {
	r := QuizResult{TotalQuestions: 5, CorrectAnswers: 2}
	if r.Percentage() != 40 {
		t.Fatalf("expected 40%%, got %d", r.Percentage())
	}
	if (QuizResult{}).Percentage() != 0 {
		t.Fatalf("expected 0 for empty result")
	}
	if !(QuizResult{TotalQuestions: 3, CorrectAnswers: 3}).Perfect() {
		t.Fatalf("expected perfect result")
	}
}

func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences()
	if !prefs.AnyEnabled() || prefs.ReminderHour != 18 || prefs.ReminderMinute != 0 {
		t.Fatalf("unexpected defaults: %+v", prefs)
	}
	if !prefs.RemindsOn(time.Monday) || prefs.RemindsOn(time.Sunday) {
		t.Fatalf("expected Monday-Friday reminders, got %v", prefs.ReminderDays)
	}
	if DisabledPreferences().AnyEnabled() {
		t.Fatalf("expected everything disabled")
	}
}

func TestPreferencesValidate(t *testing.T) {
	prefs := DefaultPreferences()
	prefs.ReminderHour = 24
	if err := prefs.Validate(); !errors.Is(err, ErrInvalidPreferences) {
		t.Fatalf("expected invalid hour, got %v", err)
	}
	prefs = DefaultPreferences()
	prefs.ReminderDays = []time.Weekday{time.Monday, time.Monday}
	if err := prefs.Validate(); !errors.Is(err, ErrInvalidPreferences) {
		t.Fatalf("expected duplicate weekday error, got %v", err)
	}
	if err := DefaultPreferences().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestPreferencesAllows(t *testing.T) {
	prefs := DefaultPreferences()
	prefs.GradeNotifications = false
	if prefs.Allows(KindGradePosted) {
		t.Fatalf("grade notifications should be blocked")
	}
	if !prefs.Allows(KindAchievement) || !prefs.Allows(KindLowScoreAlert) {
		t.Fatalf("expected achievements and alerts to pass")
	}
}
