package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"phiz-quiz-service/internal/app"
	"phiz-quiz-service/internal/clock"
	"phiz-quiz-service/internal/config"
	"phiz-quiz-service/internal/infra/memory"
	"phiz-quiz-service/internal/infra/notify"
	pgstore "phiz-quiz-service/internal/infra/postgres"
	redisstore "phiz-quiz-service/internal/infra/redis"
	"phiz-quiz-service/internal/reminder"
	transport "phiz-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// components is the wired object graph shared by the start and schedule commands.
type components struct {
	service   *app.QuizService
	prefs     app.PreferencesStore
	progress  app.ProgressStore
	notifier  app.Notifier
	reminders *reminder.Runner
	identity  transport.Identity
	close     func()
}

func buildComponents(ctx context.Context, cfg config.Config, clk clock.Clock) (*components, error) {
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	if pool != nil {
		loader = pgstore.NewQuestionLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = redisstore.NewQuestionRepository(redisClient, loader, quizTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, quizTTL)
	}

	var settings app.SettingsSource = app.FixedSettings(cfg.Quiz.QuestionCount)
	if redisClient != nil {
		settings = redisstore.NewSettings(redisClient, cfg.Quiz.QuestionCount)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	var (
		progress app.ProgressStore
		prefs    app.PreferencesStore
	)
	switch {
	case pool != nil:
		progress = pgstore.NewProgressStore(pool)
		prefs = pgstore.NewPreferencesStore(pool)
	case redisClient != nil:
		progress = redisstore.NewProgressStore(redisClient)
		prefs = redisstore.NewPreferencesStore(redisClient)
	default:
		progress = memory.NewProgressStore()
		prefs = memory.NewPreferencesStore()
	}

	var delivery app.Notifier = notify.NewLogNotifier(nil)
	if redisClient != nil && cfg.Notifications.Publish {
		delivery = notify.Fanout{delivery, redisstore.NewNotifier(redisClient)}
	}
	notifier := app.NewPreferenceFilter(delivery, prefs)

	pipeline := app.NewProgressPipeline(progress, notifier, clk.Now)
	service := app.NewQuizService(sessions, questions, settings, pipeline,
		app.WithClock(clk),
		app.WithQuizIdentity(cfg.Quiz.ID, cfg.Quiz.Name),
		app.WithSessionOptions(app.WithTimings(
			config.TTLDuration(cfg.Quiz.QuestionTime, app.QuestionTime),
			config.TTLDuration(cfg.Quiz.AdvanceDelay, app.AdvanceDelay),
		)),
	)

	var identity transport.Identity = transport.QueryIdentity{}
	if cfg.Auth.JWTSecret != "" {
		identity = transport.NewJWTIdentity(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	}

	reminders := reminder.NewRunner(clk, prefs, progress, notifier)

	return &components{
		service:   service,
		prefs:     prefs,
		progress:  progress,
		notifier:  notifier,
		reminders: reminders,
		identity:  identity,
		close: func() {
			reminders.Stop()
			if redisClient != nil {
				_ = redisClient.Close()
			}
			if pool != nil {
				pool.Close()
			}
		},
	}, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	c, err := buildComponents(ctx, cfg, clock.Real{})
	if err != nil {
		return err
	}
	defer c.close()

	wsHandler := transport.NewWSHandler(c.service, c.identity, c.reminders)
	apiHandler := transport.NewAPIHandler(c.identity, c.prefs, c.progress, c.reminders)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
