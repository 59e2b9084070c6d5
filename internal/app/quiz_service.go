package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"phiz-quiz-service/internal/clock"
	"phiz-quiz-service/internal/domain"
)

const (
	// DefaultQuizID is the identity every session is recorded under.
	DefaultQuizID = "physics_quiz"
	// DefaultQuizName is the display name stored with results.
	DefaultQuizName = "Physics Quiz"
)

// SessionRepository abstracts where live quiz sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Add(session *Session)
	Get(sessionID string) (*Session, bool)
	Remove(sessionID string)
}

// FinishReport is returned once a session's result has been recorded.
type FinishReport struct {
	Result   domain.QuizResult `json:"result"`
	Score    Score             `json:"score"`
	Progress domain.Progress   `json:"progress"`
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	sessions  SessionRepository
	questions QuestionRepository
	settings  SettingsSource
	pipeline  *ProgressPipeline

	clock       clock.Clock
	quizID      string
	quizName    string
	sessionOpts []SessionOption

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// ServiceOption customises a QuizService.
type ServiceOption func(*QuizService)

// WithClock replaces the wall clock used for timers and timestamps.
func WithClock(c clock.Clock) ServiceOption {
	return func(s *QuizService) { s.clock = c }
}

// WithSeed makes question and option shuffling reproducible.
func WithSeed(seed int64) ServiceOption {
	return func(s *QuizService) { s.rnd = rand.New(rand.NewSource(seed)) }
}

// WithSessionOptions applies opts to every session the service starts.
func WithSessionOptions(opts ...SessionOption) ServiceOption {
	return func(s *QuizService) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

// WithQuizIdentity overrides the quiz id and name recorded with results.
func WithQuizIdentity(id, name string) ServiceOption {
	return func(s *QuizService) {
		if id != "" {
			s.quizID = id
		}
		if name != "" {
			s.quizName = name
		}
	}
}

func NewQuizService(sessions SessionRepository, questions QuestionRepository, settings SettingsSource, pipeline *ProgressPipeline, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		sessions:  sessions,
		questions: questions,
		settings:  settings,
		pipeline:  pipeline,
		clock:     clock.Real{},
		quizID:    DefaultQuizID,
		quizName:  DefaultQuizName,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads and selects questions for userID and opens the first one.
// A failed load is terminal for the attempt; nothing is registered.
func (s *QuizService) Start(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, domain.ErrMissingIdentity
	}

	rnd := s.sessionRand()
	session := NewSession(uuid.NewString(), userID, s.clock, rnd, s.sessionOpts...)

	n := s.questionCount(ctx)
	pool, err := s.questions.ListQuestions(ctx)
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("load questions: %w", err)
	}
	selected, err := SelectSession(pool, n, rnd)
	if err != nil {
		session.Close()
		return nil, err
	}
	if err := session.Begin(selected); err != nil {
		session.Close()
		return nil, err
	}

	s.sessions.Add(session)
	return session, nil
}

// Submit answers the current question of a session.
func (s *QuizService) Submit(_ context.Context, sessionID string, displayIndex int) (Feedback, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return Feedback{}, domain.ErrSessionNotFound
	}
	return session.Submit(displayIndex)
}

// State returns a snapshot of a session.
func (s *QuizService) State(_ context.Context, sessionID string) (SessionState, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionState{}, domain.ErrSessionNotFound
	}
	return session.State(), nil
}

// Subscribe returns a channel that receives session events.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan Event, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Finish records the result of a finished session. It succeeds at most once per session.
func (s *QuizService) Finish(ctx context.Context, sessionID string) (FinishReport, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return FinishReport{}, domain.ErrSessionNotFound
	}
	return s.record(ctx, session)
}

// Leave tears a session down. A finished session whose result was never recorded is recorded here.
func (s *QuizService) Leave(ctx context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Remove(sessionID)

	if session.unrecorded() {
		if _, err := s.record(context.WithoutCancel(ctx), session); err != nil {
			log.Printf("record result for session %s on leave: %v", sessionID, err)
		}
	}
}

func (s *QuizService) record(ctx context.Context, session *Session) (FinishReport, error) {
	if session.UserID() == "" {
		return FinishReport{}, domain.ErrMissingIdentity
	}
	outcome, err := session.claimResult()
	if err != nil {
		return FinishReport{}, err
	}

	result := domain.QuizResult{
		ID:             uuid.NewString(),
		QuizID:         s.quizID,
		UserID:         outcome.UserID,
		QuizName:       s.quizName,
		Score:          outcome.Score.Total,
		TotalQuestions: outcome.Total,
		CorrectAnswers: outcome.Correct,
		CreatedAt:      s.clock.Now(),
	}
	progress, err := s.pipeline.Finish(ctx, result)
	if err != nil {
		session.releaseResult(false)
		return FinishReport{}, err
	}
	session.releaseResult(true)
	return FinishReport{Result: result, Score: outcome.Score, Progress: progress}, nil
}

func (s *QuizService) questionCount(ctx context.Context) int {
	if s.settings == nil {
		return DefaultQuestionCount
	}
	n, err := s.settings.QuestionCount(ctx)
	if err != nil {
		log.Printf("load question count: %v; using %d", err, DefaultQuestionCount)
		return DefaultQuestionCount
	}
	if n <= 0 {
		return DefaultQuestionCount
	}
	return n
}

func (s *QuizService) sessionRand() *rand.Rand {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return rand.New(rand.NewSource(s.rnd.Int63()))
}
