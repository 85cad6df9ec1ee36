package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

func (r *voteRepository) Get(ctx context.Context, userID uuid.UUID, target domain.TargetRef) (*domain.VoteRecord, error) {
	query := `
		SELECT user_id, target_type, target_id, value, version, created_at, updated_at
		FROM votes
		WHERE user_id = $1 AND target_type = $2 AND target_id = $3
	`
	var rec domain.VoteRecord
	err := conn(ctx, r.db).QueryRowContext(ctx, query, userID, target.Type, target.ID).Scan(
		&rec.UserID, &rec.Target.Type, &rec.Target.ID, &rec.Value, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return &rec, nil
}

func (r *voteRepository) Put(ctx context.Context, record *domain.VoteRecord) error {
	if record.Version == 0 {
		return r.insert(ctx, record)
	}

	query := `
		UPDATE votes
		SET value = $4, version = version + 1, updated_at = NOW()
		WHERE user_id = $1 AND target_type = $2 AND target_id = $3 AND version = $5
		RETURNING version, created_at, updated_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		record.UserID, record.Target.Type, record.Target.ID, record.Value, record.Version,
	).Scan(&record.Version, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrConflict
		}
		if mapped := mapError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to update vote: %w", err)
	}
	return nil
}

// insert relies on the primary key over (user_id, target_type, target_id):
// when another request already created the record nothing is returned.
func (r *voteRepository) insert(ctx context.Context, record *domain.VoteRecord) error {
	query := `
		INSERT INTO votes (user_id, target_type, target_id, value, version)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (user_id, target_type, target_id) DO NOTHING
		RETURNING version, created_at, updated_at
	`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		record.UserID, record.Target.Type, record.Target.ID, record.Value,
	).Scan(&record.Version, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrConflict
		}
		if mapped := mapError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

func (r *voteRepository) DeleteVersion(ctx context.Context, userID uuid.UUID, target domain.TargetRef, version int64) error {
	query := `
		DELETE FROM votes
		WHERE user_id = $1 AND target_type = $2 AND target_id = $3 AND version = $4
	`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, userID, target.Type, target.ID, version)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	if n == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *voteRepository) Delete(ctx context.Context, userID uuid.UUID, target domain.TargetRef) error {
	query := `DELETE FROM votes WHERE user_id = $1 AND target_type = $2 AND target_id = $3`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, userID, target.Type, target.ID)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	return nil
}

func (r *voteRepository) DeleteAllFor(ctx context.Context, target domain.TargetRef) (int64, error) {
	query := `DELETE FROM votes WHERE target_type = $1 AND target_id = $2`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, target.Type, target.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete votes for %s %s: %w", target.Type, target.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete votes for %s %s: %w", target.Type, target.ID, err)
	}
	return n, nil
}

func (r *voteRepository) CountFor(ctx context.Context, target domain.TargetRef) (domain.Tally, error) {
	var t domain.Tally
	err := conn(ctx, r.db).QueryRowContext(ctx, countVotesQuery, target.Type, target.ID).Scan(&t.Upvotes, &t.Downvotes)
	if err != nil {
		return domain.Tally{}, fmt.Errorf("failed to count votes: %w", err)
	}
	return t, nil
}

const countVotesQuery = `
	SELECT
		COUNT(*) FILTER (WHERE value = 1),
		COUNT(*) FILTER (WHERE value = -1)
	FROM votes
	WHERE target_type = $1 AND target_id = $2
`
