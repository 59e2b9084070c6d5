package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"phiz-quiz-service/internal/domain"
)

// QuestionLoader loads the question pool from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, question_text, options, correct_answer_index,
		       COALESCE(explanation, ''), point_value, difficulty
		FROM questions
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var pool []domain.Question
	for rows.Next() {
		var (
			q          domain.Question
			rawOptions []byte
		)
		if err := rows.Scan(&q.ID, &q.Prompt, &rawOptions, &q.CorrectIndex, &q.Explanation, &q.Points, &q.Difficulty); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(rawOptions, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options of %s: %w", q.ID, err)
		}
		pool = append(pool, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return pool, nil
}

// SaveQuestions upserts questions, used to seed the pool.
func (l *QuestionLoader) SaveQuestions(ctx context.Context, questions []domain.Question) error {
	for _, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		_, err = l.pool.Exec(ctx, `
			INSERT INTO questions (id, question_text, options, correct_answer_index, explanation, point_value, difficulty)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				question_text = EXCLUDED.question_text,
				options = EXCLUDED.options,
				correct_answer_index = EXCLUDED.correct_answer_index,
				explanation = EXCLUDED.explanation,
				point_value = EXCLUDED.point_value,
				difficulty = EXCLUDED.difficulty`,
			q.ID, q.Prompt, options, q.CorrectIndex, q.Explanation, q.PointValue(), difficultyOrDefault(q.Difficulty))
		if err != nil {
			return fmt.Errorf("save question %s: %w", q.ID, err)
		}
	}
	return nil
}

func difficultyOrDefault(d string) string {
	if d == "" {
		return domain.DifficultyMedium
	}
	return d
}
