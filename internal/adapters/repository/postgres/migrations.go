package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies every up migration in file name order. The statements are
// idempotent so running it against an already migrated database is harmless.
func Migrate(ctx context.Context, db *sql.DB) error {
	names, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := migrationFiles.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to apply %s: %w", path.Base(name), err)
		}
	}
	return nil
}

// MigrationFile returns the content of the single migration file whose name
// ends in the given suffix, e.g. "create_votes.up".
func MigrationFile(name string) ([]byte, error) {
	pattern, err := regexp.Compile(`^.*` + regexp.QuoteMeta(name) + `\.sql$`)
	if err != nil {
		return nil, err
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir() && pattern.MatchString(e.Name()) {
			return migrationFiles.ReadFile("migrations/" + e.Name())
		}
	}
	return nil, fmt.Errorf("migration file %q not found", name)
}
