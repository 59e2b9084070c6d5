package app

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"phiz-quiz-service/internal/clock"
	"phiz-quiz-service/internal/domain"
)

const (
	// QuestionTime is how long a question stays open.
	QuestionTime = 30 * time.Second
	// TickInterval is the countdown resolution.
	TickInterval = time.Second
	// AdvanceDelay is how long feedback stays up before the next question.
	AdvanceDelay = 2 * time.Second
)

// Phase is the state of a quiz session.
type Phase string

const (
	PhaseLoading        Phase = "loading"
	PhaseAwaitingAnswer Phase = "awaiting_answer"
	PhaseSubmitted      Phase = "submitted"
	PhaseFinished       Phase = "finished"
)

// EventType tags the updates broadcast to session subscribers.
type EventType string

const (
	EventQuestion EventType = "question"
	EventTick     EventType = "tick"
	EventFeedback EventType = "feedback"
	EventFinished EventType = "finished"
)

// Event is a session update pushed to subscribers.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	Number    int       `json:"number"`
	Total     int       `json:"total"`
	Prompt    string    `json:"prompt,omitempty"`
	Options   []string  `json:"options,omitempty"`
	Remaining int       `json:"remainingSeconds"`
	Feedback  *Feedback `json:"feedback,omitempty"`
	Final     *Score    `json:"final,omitempty"`
}

// Feedback describes how a question was resolved.
type Feedback struct {
	Correct       bool   `json:"correct"`
	TimedOut      bool   `json:"timedOut"`
	Message       string `json:"message"`
	CorrectOption string `json:"correctOption"`
	ScoreDelta    int    `json:"scoreDelta"`
	Score         int    `json:"score"`
	Last          bool   `json:"last"`
}

// AnswerRecord is the per-question outcome kept by a session.
type AnswerRecord struct {
	QuestionID string `json:"questionId"`
	Selected   int    `json:"selected"` // display index, -1 on timeout
	Correct    bool   `json:"correct"`
	TimedOut   bool   `json:"timedOut"`
	Points     int    `json:"points"`
}

// Outcome is the scored result of a finished session.
type Outcome struct {
	SessionID  string         `json:"sessionId"`
	UserID     string         `json:"userId"`
	Correct    int            `json:"correct"`
	Total      int            `json:"total"`
	Score      Score          `json:"score"`
	Answers    []AnswerRecord `json:"answers"`
	FinishedAt time.Time      `json:"finishedAt"`
}

// SessionState is a read-only snapshot of a session.
type SessionState struct {
	SessionID            string        `json:"sessionId"`
	UserID               string        `json:"userId"`
	Phase                Phase         `json:"phase"`
	Index                int           `json:"index"`
	Total                int           `json:"total"`
	Score                int           `json:"score"`
	Correct              int           `json:"correct"`
	Answered             bool          `json:"answered"`
	Order                []int         `json:"order"`
	ShuffledCorrectIndex int           `json:"-"`
	Remaining            time.Duration `json:"remaining"`
}

type resultState int

const (
	resultPending resultState = iota
	resultClaimed
	resultRecorded
)

// Session drives a single timed quiz attempt. All state is guarded by mu; timer
// callbacks re-enter through mu and are discarded when their generation is stale.
type Session struct {
	id           string
	userID       string
	clock        clock.Clock
	rnd          *rand.Rand
	questionTime time.Duration
	advanceDelay time.Duration
	createdAt    time.Time

	mu              sync.Mutex
	phase           Phase
	questions       []domain.Question
	index           int
	score           int
	correct         int
	order           []int
	shuffledCorrect int
	answered        bool
	remaining       time.Duration
	answers         []AnswerRecord
	pending         clock.Timer
	gen             uint64
	closed          bool
	outcome         *Outcome
	result          resultState
	subscribers     map[chan Event]struct{}
}

// SessionOption customises a session.
type SessionOption func(*Session)

// WithTimings overrides the question time and the auto-advance delay.
func WithTimings(questionTime, advanceDelay time.Duration) SessionOption {
	return func(s *Session) {
		if questionTime > 0 {
			s.questionTime = questionTime
		}
		if advanceDelay >= 0 {
			s.advanceDelay = advanceDelay
		}
	}
}

// NewSession creates a session in the loading phase.
func NewSession(id, userID string, clk clock.Clock, rnd *rand.Rand, opts ...SessionOption) *Session {
	s := &Session{
		id:           id,
		userID:       userID,
		clock:        clk,
		rnd:          rnd,
		questionTime: QuestionTime,
		advanceDelay: AdvanceDelay,
		createdAt:    clk.Now(),
		phase:        PhaseLoading,
		subscribers:  make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// UserID returns the owner of the session.
func (s *Session) UserID() string { return s.userID }

// Begin loads the selected questions and opens the first one.
func (s *Session) Begin(questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.phase != PhaseLoading {
		return fmt.Errorf("begin session in phase %s", s.phase)
	}
	if len(questions) == 0 {
		return domain.ErrNoQuestionsAvailable
	}

	s.questions = make([]domain.Question, len(questions))
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		s.questions[i] = q
	}
	s.enterQuestionLocked(0)
	return nil
}

// Submit answers the current question with the option shown at displayIndex.
func (s *Session) Submit(displayIndex int) (Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return Feedback{}, domain.ErrSessionClosed
	case s.phase == PhaseFinished:
		return Feedback{}, domain.ErrSessionFinished
	case s.phase == PhaseSubmitted:
		return Feedback{}, domain.ErrAnswerLocked
	case s.phase != PhaseAwaitingAnswer:
		return Feedback{}, fmt.Errorf("submit in phase %s", s.phase)
	}
	if displayIndex < 0 || displayIndex >= len(s.order) {
		return Feedback{}, domain.ErrInvalidSubmission
	}
	return s.resolveLocked(displayIndex, false), nil
}

// State returns a snapshot of the session.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		SessionID:            s.id,
		UserID:               s.userID,
		Phase:                s.phase,
		Index:                s.index,
		Total:                len(s.questions),
		Score:                s.score,
		Correct:              s.correct,
		Answered:             s.answered,
		Order:                append([]int(nil), s.order...),
		ShuffledCorrectIndex: s.shuffledCorrect,
		Remaining:            s.remaining,
	}
}

// Outcome returns the scored result once the session is finished.
func (s *Session) Outcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}

// Close tears the session down: pending callbacks are cancelled and subscribers released.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelPendingLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// claimResult reserves the right to persist the outcome; exactly one caller wins.
func (s *Session) claimResult() (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return Outcome{}, domain.ErrSessionInProgress
	}
	if s.result != resultPending {
		return Outcome{}, domain.ErrResultRecorded
	}
	s.result = resultClaimed
	return *s.outcome, nil
}

// releaseResult settles a claim; an unsuccessful write frees it for a retry.
func (s *Session) releaseResult(recorded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if recorded {
		s.result = resultRecorded
	} else {
		s.result = resultPending
	}
}

func (s *Session) unrecorded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome != nil && s.result == resultPending
}

func (s *Session) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	if snapshot, ok := s.snapshotLocked(); ok {
		ch <- snapshot
	}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) enterQuestionLocked(i int) {
	s.cancelPendingLocked()
	q := s.questions[i]
	s.index = i
	s.order = s.rnd.Perm(len(q.Options))
	s.shuffledCorrect = -1
	for display, original := range s.order {
		if q.IsCorrect(original) {
			s.shuffledCorrect = display
			break
		}
	}
	if s.shuffledCorrect < 0 {
		panic(fmt.Sprintf("question %q lost its correct option during shuffle", q.ID))
	}
	s.answered = false
	s.phase = PhaseAwaitingAnswer
	s.remaining = s.questionTime

	s.broadcastLocked(s.questionEventLocked())
	s.scheduleTickLocked(s.nextGenLocked())
}

func (s *Session) scheduleTickLocked(gen uint64) {
	step := TickInterval
	if s.remaining < step {
		step = s.remaining
	}
	s.pending = s.clock.AfterFunc(step, func() { s.onTick(gen, step) })
}

func (s *Session) onTick(gen uint64, step time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen || s.phase != PhaseAwaitingAnswer {
		return
	}

	s.remaining -= step
	if s.remaining <= 0 {
		s.remaining = 0
		s.pending = nil
		s.broadcastLocked(s.tickEventLocked())
		s.resolveLocked(-1, true)
		return
	}
	s.broadcastLocked(s.tickEventLocked())
	s.scheduleTickLocked(gen)
}

func (s *Session) resolveLocked(displayIndex int, timedOut bool) Feedback {
	s.cancelPendingLocked()
	s.nextGenLocked()

	q := s.questions[s.index]
	correct := !timedOut && displayIndex == s.shuffledCorrect
	points := 0
	if correct {
		points = q.PointValue()
		s.score += points
		s.correct++
	}
	s.answered = true
	s.phase = PhaseSubmitted
	s.answers = append(s.answers, AnswerRecord{
		QuestionID: q.ID,
		Selected:   displayIndex,
		Correct:    correct,
		TimedOut:   timedOut,
		Points:     points,
	})

	fb := s.feedbackLocked()
	s.broadcastLocked(Event{
		Type:      EventFeedback,
		SessionID: s.id,
		Number:    s.index + 1,
		Total:     len(s.questions),
		Remaining: int(s.remaining / time.Second),
		Feedback:  &fb,
	})

	if fb.Last {
		s.finishLocked()
		return fb
	}
	gen := s.gen
	s.pending = s.clock.AfterFunc(s.advanceDelay, func() { s.onAdvance(gen) })
	return fb
}

func (s *Session) onAdvance(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen || s.phase != PhaseSubmitted {
		return
	}
	s.pending = nil
	s.enterQuestionLocked(s.index + 1)
}

func (s *Session) finishLocked() {
	total := len(s.questions)
	score := FinalizeScore(s.score, s.correct, total)
	s.phase = PhaseFinished
	s.outcome = &Outcome{
		SessionID:  s.id,
		UserID:     s.userID,
		Correct:    s.correct,
		Total:      total,
		Score:      score,
		Answers:    append([]AnswerRecord(nil), s.answers...),
		FinishedAt: s.clock.Now(),
	}
	s.broadcastLocked(s.finishedEventLocked())
}

func (s *Session) feedbackLocked() Feedback {
	q := s.questions[s.index]
	last := s.answers[len(s.answers)-1]
	fb := Feedback{
		Correct:       last.Correct,
		TimedOut:      last.TimedOut,
		CorrectOption: q.CorrectOption(),
		ScoreDelta:    last.Points,
		Score:         s.score,
		Last:          s.index == len(s.questions)-1,
	}
	switch {
	case last.Correct:
		fb.Message = fmt.Sprintf("Correct! +%d points", last.Points)
	case last.TimedOut:
		fb.Message = "Time's up! The correct answer is: " + fb.CorrectOption
	default:
		fb.Message = "Incorrect. The correct answer is: " + fb.CorrectOption
	}
	return fb
}

func (s *Session) cancelPendingLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

func (s *Session) nextGenLocked() uint64 {
	s.gen++
	return s.gen
}

func (s *Session) questionEventLocked() Event {
	q := s.questions[s.index]
	options := make([]string, len(s.order))
	for display, original := range s.order {
		options[display] = q.Options[original]
	}
	return Event{
		Type:      EventQuestion,
		SessionID: s.id,
		Number:    s.index + 1,
		Total:     len(s.questions),
		Prompt:    q.Prompt,
		Options:   options,
		Remaining: int(s.remaining / time.Second),
	}
}

func (s *Session) tickEventLocked() Event {
	return Event{
		Type:      EventTick,
		SessionID: s.id,
		Number:    s.index + 1,
		Total:     len(s.questions),
		Remaining: int(s.remaining / time.Second),
	}
}

func (s *Session) finishedEventLocked() Event {
	score := s.outcome.Score
	return Event{
		Type:      EventFinished,
		SessionID: s.id,
		Number:    len(s.questions),
		Total:     len(s.questions),
		Final:     &score,
	}
}

func (s *Session) snapshotLocked() (Event, bool) {
	switch s.phase {
	case PhaseAwaitingAnswer:
		return s.questionEventLocked(), true
	case PhaseSubmitted:
		fb := s.feedbackLocked()
		return Event{
			Type:      EventFeedback,
			SessionID: s.id,
			Number:    s.index + 1,
			Total:     len(s.questions),
			Feedback:  &fb,
		}, true
	case PhaseFinished:
		return s.finishedEventLocked(), true
	default:
		return Event{}, false
	}
}

func (s *Session) broadcastLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// drop the oldest update so a slow reader never blocks the session
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
