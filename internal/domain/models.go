package domain

import "time"

// DefaultPoints is awarded for a correct answer when a question carries no point value.
const DefaultPoints = 20

// Difficulty tags attached to questions.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question models a four-option multiple choice question.
type Question struct {
	ID           string   `json:"questionId"`
	Prompt       string   `json:"questionText"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctAnswerIndex"`
	Explanation  string   `json:"explanation,omitempty"`
	Points       int      `json:"pointValue"` // defaults to DefaultPoints if zero
	Difficulty   string   `json:"difficulty,omitempty"`
}

// Valid reports whether the question can be shown in a session.
func (q Question) Valid() bool {
	if q.Prompt == "" || len(q.Options) < 4 {
		return false
	}
	return q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options)
}

// PointValue returns the points awarded for a correct answer.
func (q Question) PointValue() int {
	if q.Points > 0 {
		return q.Points
	}
	return DefaultPoints
}

// IsCorrect reports whether the option at the original index i is the right one.
func (q Question) IsCorrect(i int) bool {
	return i == q.CorrectIndex
}

// CorrectOption returns the text of the correct option.
func (q Question) CorrectOption() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

// QuizResult is the persisted record of one completed session.
type QuizResult struct {
	ID             string    `json:"id"`
	QuizID         string    `json:"quizId"`
	UserID         string    `json:"userId"`
	QuizName       string    `json:"quizName"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CorrectAnswers int       `json:"correctAnswers"`
	CreatedAt      time.Time `json:"timestamp"`
}

// Percentage is the share of correctly answered questions, rounded down.
func (r QuizResult) Percentage() int {
	if r.TotalQuestions <= 0 {
		return 0
	}
	return r.CorrectAnswers * 100 / r.TotalQuestions
}

// Perfect reports whether every question was answered correctly.
func (r QuizResult) Perfect() bool {
	return r.TotalQuestions > 0 && r.CorrectAnswers == r.TotalQuestions
}

// Progress holds a user's cumulative counters.
type Progress struct {
	UserID         string    `json:"userId"`
	TotalScore     int       `json:"totalScore"`
	TestsCompleted int       `json:"testsCompleted"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}
