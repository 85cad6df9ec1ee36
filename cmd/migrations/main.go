package main

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/marathonqa/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/marathonqa/internal/config"
	"github.com/vncsmyrnk/marathonqa/internal/logging"
)

// Usage: migrations [flags] [name]
//
// Without a name every up migration is applied in order. With a name only the
// file whose name ends in it runs, e.g. "create_votes.down".
func main() {
	cfg, err := config.Load("migrations", os.Args[1:])
	if err != nil {
		logrus.Fatal(err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.Postgres.DSN())
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	if len(cfg.Args) == 0 {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.WithError(err).Fatal("failed to apply migrations")
		}
		log.Info("All migrations applied successfully.")
		return
	}

	migrationName := cfg.Args[0]
	fileContent, err := postgres.MigrationFile(migrationName)
	if err != nil {
		log.WithError(err).Fatal("failed to read migration")
	}

	if _, err := db.ExecContext(ctx, string(fileContent)); err != nil {
		log.WithError(err).WithField("migration", migrationName).Fatal("Failed to execute SQL file")
	}

	log.WithField("migration", migrationName).Info("Migration file executed successfully.")
}
