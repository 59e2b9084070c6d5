package reminder

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"phiz-quiz-service/internal/app"
	"phiz-quiz-service/internal/clock"
	"phiz-quiz-service/internal/domain"
)

// Job names a recurring reminder job.
type Job string

const (
	JobStudyReminder   Job = "study_reminder"
	JobWeeklyProgress  Job = "weekly_progress"
	JobInactivityCheck Job = "inactivity_check"
)

// PreferencesSource loads stored notification preferences.
type PreferencesSource interface {
	GetPreferences(ctx context.Context, userID string) (domain.NotificationPreferences, error)
}

// ProgressSource loads cumulative progress.
type ProgressSource interface {
	GetProgress(ctx context.Context, userID string) (domain.Progress, error)
}

type entry struct {
	timer clock.Timer
	gen   uint64
	at    time.Time
}

// Runner keeps at most one pending timer per user and job. Timer callbacks
// are matched against a generation so a cancelled job never fires.
type Runner struct {
	clock    clock.Clock
	prefs    PreferencesSource
	progress ProgressSource
	notifier app.Notifier
	timeout  time.Duration

	mu       sync.Mutex
	gen      uint64
	jobs     map[string]map[Job]*entry
	lastWeek map[string]int
	stopped  bool
}

func NewRunner(clk clock.Clock, prefs PreferencesSource, progress ProgressSource, notifier app.Notifier) *Runner {
	return &Runner{
		clock:    clk,
		prefs:    prefs,
		progress: progress,
		notifier: notifier,
		timeout:  10 * time.Second,
		jobs:     make(map[string]map[Job]*entry),
		lastWeek: make(map[string]int),
	}
}

// Schedule (re)plans every job for userID from the stored preferences.
// Pending jobs of the user are cancelled first.
func (r *Runner) Schedule(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrMissingIdentity
	}
	prefs, err := r.prefs.GetPreferences(ctx, userID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil
	}
	r.cancelLocked(userID)

	now := r.clock.Now()
	if at, ok := NextStudyReminder(now, prefs); ok {
		r.scheduleLocked(userID, JobStudyReminder, at)
	}
	if prefs.WeeklyProgress {
		r.scheduleLocked(userID, JobWeeklyProgress, NextWeeklyReport(now))
	}
	r.scheduleLocked(userID, JobInactivityCheck, now.Add(InactivityCheckDelay))
	return nil
}

// Cancel drops every pending job of userID.
func (r *Runner) Cancel(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelLocked(userID)
}

// Stop cancels everything; later Schedule calls are ignored.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	for userID := range r.jobs {
		r.cancelLocked(userID)
	}
}

// Planned returns when each pending job of userID fires next.
func (r *Runner) Planned(userID string) map[Job]time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Job]time.Time, len(r.jobs[userID]))
	for job, e := range r.jobs[userID] {
		out[job] = e.at
	}
	return out
}

// Users lists the users with pending jobs.
func (r *Runner) Users() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]string, 0, len(r.jobs))
	for userID := range r.jobs {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

func (r *Runner) scheduleLocked(userID string, job Job, at time.Time) {
	jobs, ok := r.jobs[userID]
	if !ok {
		jobs = make(map[Job]*entry)
		r.jobs[userID] = jobs
	}
	if prev, ok := jobs[job]; ok {
		prev.timer.Stop()
	}
	r.gen++
	gen := r.gen
	delay := at.Sub(r.clock.Now())
	if delay < 0 {
		delay = 0
	}
	jobs[job] = &entry{
		at:    at,
		gen:   gen,
		timer: r.clock.AfterFunc(delay, func() { r.fire(userID, job, gen) }),
	}
}

func (r *Runner) cancelLocked(userID string) {
	for _, e := range r.jobs[userID] {
		e.timer.Stop()
	}
	delete(r.jobs, userID)
}

func (r *Runner) fire(userID string, job Job, gen uint64) {
	r.mu.Lock()
	e, ok := r.jobs[userID][job]
	if r.stopped || !ok || e.gen != gen {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	next, again := r.run(ctx, userID, job)

	r.mu.Lock()
	defer r.mu.Unlock()
	// cancelled or rescheduled while running
	if cur, ok := r.jobs[userID][job]; r.stopped || !ok || cur.gen != gen {
		return
	}
	if !again {
		delete(r.jobs[userID], job)
		return
	}
	r.scheduleLocked(userID, job, next)
}

// run executes one job and returns when it should run again.
func (r *Runner) run(ctx context.Context, userID string, job Job) (time.Time, bool) {
	now := r.clock.Now()
	prefs, err := r.prefs.GetPreferences(ctx, userID)
	if err != nil {
		log.Printf("reminder %s for %s: load preferences: %v", job, userID, err)
		prefs = domain.DefaultPreferences()
	}

	switch job {
	case JobStudyReminder:
		if prefs.StudyReminders {
			r.notify(ctx, job, studyReminder(userID))
		}
		// step past the current slot so the same reminder is not picked again
		return NextStudyReminder(now.Add(time.Minute), prefs)

	case JobWeeklyProgress:
		if !prefs.WeeklyProgress {
			return time.Time{}, false
		}
		p, err := r.progress.GetProgress(ctx, userID)
		if err != nil {
			log.Printf("reminder %s for %s: load progress: %v", job, userID, err)
			return NextWeeklyReport(now), true
		}
		r.mu.Lock()
		improvement := p.TotalScore - r.lastWeek[userID]
		r.lastWeek[userID] = p.TotalScore
		r.mu.Unlock()
		r.notify(ctx, job, weeklyProgress(userID, improvement, p.TotalScore))
		return NextWeeklyReport(now), true

	case JobInactivityCheck:
		p, err := r.progress.GetProgress(ctx, userID)
		if err != nil {
			log.Printf("reminder %s for %s: load progress: %v", job, userID, err)
		} else if IsInactive(p.LastActivityAt, now) && prefs.Allows(domain.KindInactivityReminder) {
			r.notify(ctx, job, inactivityReminder(userID, InactiveDays(p.LastActivityAt, now)))
		}
		return now.Add(InactivityCheckInterval), true
	}
	return time.Time{}, false
}

func (r *Runner) notify(ctx context.Context, job Job, n domain.Notification) {
	if err := r.notifier.Notify(ctx, n); err != nil {
		log.Printf("reminder %s for %s: %v", job, n.Recipient, err)
	}
}
