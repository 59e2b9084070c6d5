// Package reminder computes reminder times and runs the per-user reminder jobs.
package reminder

import (
	"fmt"
	"time"

	"phiz-quiz-service/internal/domain"
)

const (
	// WeeklyReportHour is when the weekly progress report goes out on Sundays.
	WeeklyReportHour = 10
	// InactivityThresholdDays is how long a user may stay away before being nudged.
	InactivityThresholdDays = 3
	// InactivityCheckDelay is the delay before the first inactivity check.
	InactivityCheckDelay = time.Hour
	// InactivityCheckInterval is the period of later inactivity checks.
	InactivityCheckInterval = 24 * time.Hour
)

// NextDailyReminder returns the first hour:minute at or after now, in now's location.
func NextDailyReminder(now time.Time, hour, minute int) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if target.Before(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

// NextWeeklyReport returns the next Sunday 10:00 strictly after now.
func NextWeeklyReport(now time.Time) time.Time {
	days := (7 - int(now.Weekday())) % 7
	day := now.AddDate(0, 0, days)
	target := time.Date(day.Year(), day.Month(), day.Day(), WeeklyReportHour, 0, 0, 0, now.Location())
	if !target.After(now) {
		target = target.AddDate(0, 0, 7)
	}
	return target
}

// NextStudyReminder is the next daily reminder that lands on one of the enabled weekdays.
// It reports false when study reminders are off or no weekday is enabled.
func NextStudyReminder(now time.Time, prefs domain.NotificationPreferences) (time.Time, bool) {
	if !prefs.StudyReminders || len(prefs.ReminderDays) == 0 {
		return time.Time{}, false
	}
	candidate := NextDailyReminder(now, prefs.ReminderHour, prefs.ReminderMinute)
	for i := 0; i < 7; i++ {
		if prefs.RemindsOn(candidate.Weekday()) {
			return candidate, true
		}
		candidate = candidate.AddDate(0, 0, 1)
	}
	return time.Time{}, false
}

// InactiveDays counts whole days since last. An unknown last activity counts as today.
func InactiveDays(last, now time.Time) int {
	if last.IsZero() || now.Before(last) {
		return 0
	}
	return int(now.Sub(last) / (24 * time.Hour))
}

// IsInactive reports whether the user has been away for at least InactivityThresholdDays.
func IsInactive(last, now time.Time) bool {
	return InactiveDays(last, now) >= InactivityThresholdDays
}

func studyReminder(userID string) domain.Notification {
	return domain.Notification{
		Kind:      domain.KindStudyReminder,
		Recipient: userID,
		Title:     "Time to Study!",
		Body:      "Take a quick physics quiz to keep your skills sharp",
	}
}

func inactivityReminder(userID string, days int) domain.Notification {
	return domain.Notification{
		Kind:      domain.KindInactivityReminder,
		Recipient: userID,
		Title:     "We Miss You!",
		Body:      fmt.Sprintf("It's been %d days since your last visit. Come back and learn some physics!", days),
		Data:      map[string]string{"days": fmt.Sprint(days)},
	}
}

func weeklyProgress(userID string, improvement, current int) domain.Notification {
	body := fmt.Sprintf("Your current score is %d points. Keep practicing!", current)
	if improvement > 0 {
		body = fmt.Sprintf("You improved by %d points this week! Current score: %d", improvement, current)
	}
	return domain.Notification{
		Kind:      domain.KindWeeklyProgress,
		Recipient: userID,
		Title:     "Weekly Progress Report",
		Body:      body,
		Data: map[string]string{
			"improvement":   fmt.Sprint(improvement),
			"current_score": fmt.Sprint(current),
		},
	}
}
