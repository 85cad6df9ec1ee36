package main

import (
	"context"
	"database/sql"
	"errors"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/marathonqa/internal/adapters/handler/http"
	"github.com/vncsmyrnk/marathonqa/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/marathonqa/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/marathonqa/internal/config"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
	"github.com/vncsmyrnk/marathonqa/internal/core/services"
	"github.com/vncsmyrnk/marathonqa/internal/logging"
)

type tallyStore interface {
	ports.TallyRepository
	ports.TargetChecker
}

type repositories struct {
	questions ports.QuestionRepository
	answers   ports.AnswerRepository
	votes     ports.VoteRepository
	tallies   tallyStore
	tx        ports.Transactor
}

func main() {
	cfg, err := config.Load("server", os.Args[1:])
	if err != nil {
		logrus.Fatal(err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatal(err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, db, err := openRepositories(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open storage")
	}
	if db != nil {
		defer db.Close()
	}

	voteSvc := services.NewVoteService(repos.votes, repos.tallies, repos.tallies, repos.tx,
		services.VoteServiceConfig{
			MaxAttempts: uint(cfg.VoteMaxAttempts),
			RetryDelay:  cfg.VoteRetryDelay,
		}, log)
	questionSvc := services.NewQuestionService(repos.questions, repos.answers, repos.votes, repos.tx, log)
	answerSvc := services.NewAnswerService(repos.answers, repos.questions, repos.votes, repos.tx, log)

	handler := http.NewHandler(http.RouterConfig{
		Questions:      http.NewQuestionHandler(questionSvc, log),
		Answers:        http.NewAnswerHandler(answerSvc, log),
		Votes:          http.NewVoteHandler(voteSvc, log),
		Auth:           http.NewAuthMiddleware(cfg.JWTSecret, log),
		VoteLimiter:    http.NewRateLimiter(cfg.VoteRateLimit, cfg.VoteRateBurst, log),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         log,
	})
	server := &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":  cfg.HTTPAddr,
			"store": cfg.Store,
		}).Info("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Info("Gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, *sql.DB, error) {
	if cfg.Store == config.StoreMemory {
		store := memory.New()
		return &repositories{
			questions: store.Questions(),
			answers:   store.Answers(),
			votes:     store.Votes(),
			tallies:   store.Tallies(),
			tx:        store,
		}, nil, nil
	}

	db, err := postgres.Open(ctx, cfg.Postgres.DSN())
	if err != nil {
		return nil, nil, err
	}
	return &repositories{
		questions: postgres.NewQuestionRepository(db),
		answers:   postgres.NewAnswerRepository(db),
		votes:     postgres.NewVoteRepository(db),
		tallies:   postgres.NewTallyRepository(db),
		tx:        postgres.NewTransactor(db),
	}, db, nil
}
