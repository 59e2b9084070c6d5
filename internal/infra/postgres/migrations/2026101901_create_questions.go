package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 2026101901_create_questions.sql
var createQuestionsSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createQuestionsSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS questions`)
			return err
		},
	)
}
