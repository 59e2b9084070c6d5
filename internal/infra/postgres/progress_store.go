package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"phiz-quiz-service/internal/domain"
)

// ProgressStore keeps grades and user counters in Postgres.
type ProgressStore struct {
	pool *pgxpool.Pool
}

func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

// CommitResult inserts the grade and increments the counters in one transaction.
func (s *ProgressStore) CommitResult(ctx context.Context, result domain.QuizResult) (domain.Progress, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p := domain.Progress{UserID: result.UserID}
	var lastActivity *time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO users (id, total_score, tests_completed)
		VALUES ($1, $2, 1)
		ON CONFLICT (id) DO UPDATE SET
			total_score = users.total_score + EXCLUDED.total_score,
			tests_completed = users.tests_completed + 1
		RETURNING total_score, tests_completed, last_activity_at`,
		result.UserID, result.Score).Scan(&p.TotalScore, &p.TestsCompleted, &lastActivity)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("update counters: %w", err)
	}
	if lastActivity != nil {
		p.LastActivityAt = *lastActivity
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO grades (id, user_id, quiz_id, quiz_name, score, total_questions, correct_answers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		result.ID, result.UserID, result.QuizID, result.QuizName, result.Score,
		result.TotalQuestions, result.CorrectAnswers, result.CreatedAt)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("insert grade: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Progress{}, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

func (s *ProgressStore) TouchActivity(ctx context.Context, userID string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, last_activity_at) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET last_activity_at = EXCLUDED.last_activity_at`,
		userID, at)
	return err
}

func (s *ProgressStore) GetProgress(ctx context.Context, userID string) (domain.Progress, error) {
	p := domain.Progress{UserID: userID}
	var lastActivity *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT total_score, tests_completed, last_activity_at FROM users WHERE id = $1`,
		userID).Scan(&p.TotalScore, &p.TestsCompleted, &lastActivity)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return domain.Progress{}, err
	}
	if lastActivity != nil {
		p.LastActivityAt = *lastActivity
	}
	return p, nil
}

func (s *ProgressStore) ListResults(ctx context.Context, userID string) ([]domain.QuizResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, quiz_id, quiz_name, score, total_questions, correct_answers, created_at
		FROM grades WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.QuizResult
	for rows.Next() {
		var r domain.QuizResult
		if err := rows.Scan(&r.ID, &r.UserID, &r.QuizID, &r.QuizName, &r.Score,
			&r.TotalQuestions, &r.CorrectAnswers, &r.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
