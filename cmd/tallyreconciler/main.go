package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/marathonqa/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/marathonqa/internal/config"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
	"github.com/vncsmyrnk/marathonqa/internal/core/services"
	"github.com/vncsmyrnk/marathonqa/internal/logging"
)

// runTimeout bounds a single reconciliation pass.
const runTimeout = 5 * time.Minute

func main() {
	cfg, err := config.Load("tallyreconciler", os.Args[1:])
	if err != nil {
		logrus.Fatal(err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatal(err)
	}
	if cfg.Store != config.StorePostgres {
		log.Fatalf("the reconciler needs the %s store", config.StorePostgres)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Postgres.DSN())
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	reconcileService := newReconcileService(db, cfg.ReconcileConcurrency, log)

	if cfg.ReconcileSchedule == "" {
		if err := runOnce(ctx, reconcileService, log); err != nil {
			log.WithError(err).Fatal("tally reconciliation failed")
		}
		return
	}

	c := cron.New(cron.WithLogger(cronLogger{log}))
	_, err = c.AddFunc(cfg.ReconcileSchedule, func() {
		if err := runOnce(ctx, reconcileService, log); err != nil {
			log.WithError(err).Error("tally reconciliation failed")
		}
	})
	if err != nil {
		log.WithError(err).Fatalf("invalid schedule %q", cfg.ReconcileSchedule)
	}

	log.WithField("schedule", cfg.ReconcileSchedule).Info("tally reconciler scheduled")
	c.Start()
	<-ctx.Done()

	log.Info("waiting for the running pass to finish...")
	<-c.Stop().Done()
}

func newReconcileService(db *sql.DB, concurrency int, log logrus.FieldLogger) ports.ReconcileService {
	return services.NewReconcileService(
		postgres.NewQuestionRepository(db),
		postgres.NewAnswerRepository(db),
		postgres.NewTallyRepository(db),
		concurrency,
		log,
	)
}

func runOnce(ctx context.Context, svc ports.ReconcileService, log logrus.FieldLogger) error {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	log.Info("Starting tally reconciliation...")
	start := time.Now()

	report, err := svc.ReconcileAll(ctx)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"checked":  report.Checked,
		"repaired": report.Repaired,
		"elapsed":  time.Since(start),
	}).Info("Tally reconciliation completed")
	return nil
}

// cronLogger routes cron's own messages through logrus.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(keysAndValues []any) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			f[k] = keysAndValues[i+1]
		}
	}
	return f
}
