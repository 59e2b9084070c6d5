package domain

import (
	"fmt"
	"time"
)

// NotificationKind identifies what a notification is about.
type NotificationKind string

const (
	KindQuizAvailable      NotificationKind = "quiz_available"
	KindGradePosted        NotificationKind = "grade_posted"
	KindAchievement        NotificationKind = "achievement"
	KindLowScoreAlert      NotificationKind = "low_score_alert"
	KindQuizCompleted      NotificationKind = "quiz_completed"
	KindStudyReminder      NotificationKind = "study_reminder"
	KindInactivityReminder NotificationKind = "inactivity_reminder"
	KindWeeklyProgress     NotificationKind = "weekly_progress"
	KindNewContent         NotificationKind = "new_content"
)

// AudienceInstructors addresses every instructor instead of a single user.
const AudienceInstructors = "instructors"

// Notification is a request handed to the notification dispatcher.
type Notification struct {
	Kind      NotificationKind  `json:"kind"`
	Recipient string            `json:"recipient"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
}

// NotificationPreferences are the per-user notification toggles and reminder schedule.
type NotificationPreferences struct {
	QuizNotifications        bool           `json:"quizNotifications"`
	GradeNotifications       bool           `json:"gradeNotifications"`
	AchievementNotifications bool           `json:"achievementNotifications"`
	StudyReminders           bool           `json:"studyReminders"`
	WeeklyProgress           bool           `json:"weeklyProgress"`
	ReminderHour             int            `json:"reminderHour"`
	ReminderMinute           int            `json:"reminderMinute"`
	ReminderDays             []time.Weekday `json:"reminderDays"`
}

// DefaultPreferences enables everything with a weekday 18:00 reminder.
func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{
		QuizNotifications:        true,
		GradeNotifications:       true,
		AchievementNotifications: true,
		StudyReminders:           true,
		WeeklyProgress:           true,
		ReminderHour:             18,
		ReminderMinute:           0,
		ReminderDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
	}
}

// DisabledPreferences turns every notification off but keeps the default schedule.
func DisabledPreferences() NotificationPreferences {
	prefs := DefaultPreferences()
	prefs.QuizNotifications = false
	prefs.GradeNotifications = false
	prefs.AchievementNotifications = false
	prefs.StudyReminders = false
	prefs.WeeklyProgress = false
	return prefs
}

// Validate checks the reminder schedule.
func (p NotificationPreferences) Validate() error {
	if p.ReminderHour < 0 || p.ReminderHour > 23 {
		return fmt.Errorf("%w: reminder hour %d", ErrInvalidPreferences, p.ReminderHour)
	}
	if p.ReminderMinute < 0 || p.ReminderMinute > 59 {
		return fmt.Errorf("%w: reminder minute %d", ErrInvalidPreferences, p.ReminderMinute)
	}
	seen := make(map[time.Weekday]bool, len(p.ReminderDays))
	for _, day := range p.ReminderDays {
		if day < time.Sunday || day > time.Saturday {
			return fmt.Errorf("%w: weekday %d", ErrInvalidPreferences, day)
		}
		if seen[day] {
			return fmt.Errorf("%w: duplicate weekday %s", ErrInvalidPreferences, day)
		}
		seen[day] = true
	}
	return nil
}

// RemindsOn reports whether study reminders are enabled for the weekday.
func (p NotificationPreferences) RemindsOn(day time.Weekday) bool {
	for _, d := range p.ReminderDays {
		if d == day {
			return true
		}
	}
	return false
}

// AnyEnabled reports whether at least one notification type is on.
func (p NotificationPreferences) AnyEnabled() bool {
	return p.QuizNotifications || p.GradeNotifications || p.AchievementNotifications ||
		p.StudyReminders || p.WeeklyProgress
}

// Allows reports whether a notification of the given kind may reach the user.
func (p NotificationPreferences) Allows(kind NotificationKind) bool {
	switch kind {
	case KindQuizAvailable, KindNewContent:
		return p.QuizNotifications
	case KindGradePosted:
		return p.GradeNotifications
	case KindAchievement:
		return p.AchievementNotifications
	case KindStudyReminder, KindInactivityReminder:
		return p.StudyReminders
	case KindWeeklyProgress:
		return p.WeeklyProgress
	default:
		return true
	}
}
