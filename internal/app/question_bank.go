package app

import (
	"context"
	"math/rand"

	"phiz-quiz-service/internal/domain"
)

// DefaultQuestionCount is used when no question count is configured.
const DefaultQuestionCount = 5

// QuestionRepository loads the question pool (from cache/backing store).
type QuestionRepository interface {
	ListQuestions(ctx context.Context) ([]domain.Question, error)
}

// SettingsSource supplies the number of questions per session.
type SettingsSource interface {
	QuestionCount(ctx context.Context) (int, error)
}

// FixedSettings is a SettingsSource backed by a static value.
type FixedSettings int

func (f FixedSettings) QuestionCount(context.Context) (int, error) {
	return int(f), nil
}

// SelectSession filters malformed questions, shuffles the rest and keeps at most n of them.
// Option order inside each question is left untouched.
func SelectSession(pool []domain.Question, n int, rnd *rand.Rand) ([]domain.Question, error) {
	if n <= 0 {
		n = DefaultQuestionCount
	}
	valid := make([]domain.Question, 0, len(pool))
	for _, q := range pool {
		if q.Valid() {
			valid = append(valid, q)
		}
	}
	if len(valid) == 0 {
		return nil, domain.ErrNoQuestionsAvailable
	}

	rnd.Shuffle(len(valid), func(i, j int) {
		valid[i], valid[j] = valid[j], valid[i]
	})
	if len(valid) > n {
		valid = valid[:n]
	}
	return valid, nil
}
