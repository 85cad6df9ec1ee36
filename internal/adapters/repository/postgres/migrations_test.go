package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAppliesEveryUpFile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS questions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS answers").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS votes").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE questions ADD COLUMN IF NOT EXISTS views").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationFile(t *testing.T) {
	content, err := MigrationFile("create_votes.down")
	require.NoError(t, err)
	assert.Contains(t, string(content), "DROP TABLE IF EXISTS votes")

	content, err = MigrationFile("add_views_and_accepted_answers.up")
	require.NoError(t, err)
	assert.Contains(t, string(content), "WHERE is_accepted")

	_, err = MigrationFile("create_ratings.up")
	assert.Error(t, err)
}
