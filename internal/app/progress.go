package app

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"phiz-quiz-service/internal/domain"
)

// LowScorePercentage is the threshold below which instructors get an alert.
const LowScorePercentage = 50

// ProgressStore persists results and cumulative counters.
type ProgressStore interface {
	// CommitResult appends the result and increments the user's total score and
	// completed-test counter as one atomic unit, returning the new counters.
	CommitResult(ctx context.Context, result domain.QuizResult) (domain.Progress, error)
	TouchActivity(ctx context.Context, userID string, at time.Time) error
	GetProgress(ctx context.Context, userID string) (domain.Progress, error)
	ListResults(ctx context.Context, userID string) ([]domain.QuizResult, error)
}

// Notifier dispatches notification requests.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Achievement is a milestone reached by finishing a quiz.
type Achievement struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var testMilestones = []struct {
	count int
	award Achievement
}{
	{1, Achievement{"First Steps!", "You completed your first physics quiz!"}},
	{5, Achievement{"Quiz Enthusiast!", "You've completed 5 quizzes. Keep it up!"}},
	{10, Achievement{"Physics Regular!", "10 quizzes completed! You're on a roll!"}},
}

var scoreMilestones = []struct {
	threshold int
	award     Achievement
}{
	{100, Achievement{"Century Club!", "You've earned 100+ points total!"}},
	{500, Achievement{"High Achiever!", "You've earned 500+ points! Impressive!"}},
	{1000, Achievement{"Physics Master!", "1000+ points! You're a true physics expert!"}},
}

var perfectAchievement = Achievement{"Perfect Score!", "You got all questions right! Amazing!"}

// Achievements returns the milestones satisfied by result given the counters after it was committed.
// Score milestones fire on the crossing only: new total >= threshold and new total - result.Score < threshold.
// TODO: keep a durable set of awarded milestones so out-of-band score corrections cannot re-award them.
func Achievements(progress domain.Progress, result domain.QuizResult) []Achievement {
	var out []Achievement
	for _, m := range testMilestones {
		if progress.TestsCompleted == m.count {
			out = append(out, m.award)
		}
	}
	for _, m := range scoreMilestones {
		if progress.TotalScore >= m.threshold && progress.TotalScore-result.Score < m.threshold {
			out = append(out, m.award)
		}
	}
	if result.Perfect() {
		out = append(out, perfectAchievement)
	}
	return out
}

// ProgressPipeline sequences the effects of a finished quiz.
type ProgressPipeline struct {
	store         ProgressStore
	notifier      Notifier
	now           func() time.Time
	effectTimeout time.Duration
}

func NewProgressPipeline(store ProgressStore, notifier Notifier, now func() time.Time) *ProgressPipeline {
	if now == nil {
		now = time.Now
	}
	return &ProgressPipeline{
		store:         store,
		notifier:      notifier,
		now:           now,
		effectTimeout: 10 * time.Second,
	}
}

// Finish commits the result and then runs the secondary effects. Only the commit can fail the call;
// secondary effects run concurrently, are logged on failure and never block each other.
func (p *ProgressPipeline) Finish(ctx context.Context, result domain.QuizResult) (domain.Progress, error) {
	if result.UserID == "" {
		return domain.Progress{}, domain.ErrMissingIdentity
	}

	progress, err := p.store.CommitResult(ctx, result)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	effectCtx := context.WithoutCancel(ctx)
	var g errgroup.Group
	p.run(&g, effectCtx, result, "touch activity", func(ctx context.Context) error {
		return p.store.TouchActivity(ctx, result.UserID, p.now())
	})
	p.run(&g, effectCtx, result, "achievements", func(ctx context.Context) error {
		return p.notifyAchievements(ctx, progress, result)
	})
	if result.Percentage() < LowScorePercentage {
		p.run(&g, effectCtx, result, "low score alert", func(ctx context.Context) error {
			return p.notifier.Notify(ctx, lowScoreAlert(result))
		})
	}
	p.run(&g, effectCtx, result, "grade posted", func(ctx context.Context) error {
		return p.notifier.Notify(ctx, gradePosted(result))
	})
	p.run(&g, effectCtx, result, "quiz completed", func(ctx context.Context) error {
		return p.notifier.Notify(ctx, quizCompleted(result))
	})
	_ = g.Wait()

	return progress, nil
}

func (p *ProgressPipeline) run(g *errgroup.Group, ctx context.Context, result domain.QuizResult, name string, fn func(context.Context) error) {
	g.Go(func() error {
		ctx, cancel := context.WithTimeout(ctx, p.effectTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			err = fmt.Errorf("%w: %s: %v", domain.ErrSecondaryEffect, name, err)
			log.Printf("quiz result %s for user %s: %v", result.ID, result.UserID, err)
			return err
		}
		return nil
	})
}

func (p *ProgressPipeline) notifyAchievements(ctx context.Context, progress domain.Progress, result domain.QuizResult) error {
	var firstErr error
	for _, a := range Achievements(progress, result) {
		err := p.notifier.Notify(ctx, domain.Notification{
			Kind:      domain.KindAchievement,
			Recipient: result.UserID,
			Title:     "Achievement Unlocked!",
			Body:      a.Title,
			Data:      map[string]string{"title": a.Title, "description": a.Description},
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func gradePosted(result domain.QuizResult) domain.Notification {
	body := fmt.Sprintf("You scored %d points!", result.Score)
	if result.Perfect() {
		body = fmt.Sprintf("Perfect score! You earned %d points!", result.Score)
	}
	return domain.Notification{
		Kind:      domain.KindGradePosted,
		Recipient: result.UserID,
		Title:     "Quiz Complete!",
		Body:      body,
		Data: map[string]string{
			"quiz_id":         result.QuizID,
			"score":           strconv.Itoa(result.Score),
			"total_questions": strconv.Itoa(result.TotalQuestions),
		},
	}
}

func lowScoreAlert(result domain.QuizResult) domain.Notification {
	pct := result.Percentage()
	return domain.Notification{
		Kind:      domain.KindLowScoreAlert,
		Recipient: domain.AudienceInstructors,
		Title:     "Low Score Alert",
		Body:      fmt.Sprintf("Student %s scored %d%% on their quiz. They may need help.", result.UserID, pct),
		Data: map[string]string{
			"student_id": result.UserID,
			"score":      strconv.Itoa(result.Score),
			"percentage": strconv.Itoa(pct),
		},
	}
}

func quizCompleted(result domain.QuizResult) domain.Notification {
	return domain.Notification{
		Kind:      domain.KindQuizCompleted,
		Recipient: domain.AudienceInstructors,
		Title:     "Quiz Completed",
		Body:      fmt.Sprintf("Student %s completed a quiz with %d points (%d%%)", result.UserID, result.Score, result.Percentage()),
		Data: map[string]string{
			"student_id": result.UserID,
			"score":      strconv.Itoa(result.Score),
			"percentage": strconv.Itoa(result.Percentage()),
		},
	}
}
