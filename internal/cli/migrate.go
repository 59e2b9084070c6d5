package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"phiz-quiz-service/internal/config"
	pgstore "phiz-quiz-service/internal/infra/postgres"
	pgmigrations "phiz-quiz-service/internal/infra/postgres/migrations"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "insert the sample physics questions")
	return cmd
}

func runMigrations(ctx context.Context, configPath string, seed bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	if !seed {
		return nil
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	questions := sampleQuestions()
	if err := pgstore.NewQuestionLoader(pool).SaveQuestions(ctx, questions); err != nil {
		return err
	}
	log.Printf("seeded %d questions", len(questions))
	return nil
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Printf("no new migrations")
		return nil
	}
	log.Printf("migrations applied: %s", group)
	return nil
}
