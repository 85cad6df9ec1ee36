package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

// targetTables maps each votable type to the table holding its tally.
var targetTables = map[domain.TargetType]string{
	domain.TargetQuestion: "questions",
	domain.TargetAnswer:   "answers",
}

func tableFor(t domain.TargetType) (string, error) {
	table, ok := targetTables[t]
	if !ok {
		return "", domain.ErrInvalidTargetType
	}
	return table, nil
}

type TallyRepository struct {
	db    *sql.DB
	tx    *Transactor
	votes ports.VoteRepository
}

var (
	_ ports.TallyRepository          = (*TallyRepository)(nil)
	_ ports.TargetChecker            = (*TallyRepository)(nil)
	_ ports.TallyReconcileRepository = (*TallyRepository)(nil)
)

func NewTallyRepository(db *sql.DB) *TallyRepository {
	return &TallyRepository{
		db:    db,
		tx:    NewTransactor(db),
		votes: NewVoteRepository(db),
	}
}

// ApplyDelta is a single UPDATE so concurrent deltas never overwrite each
// other. The CHECK constraints reject a counter going negative.
func (r *TallyRepository) ApplyDelta(ctx context.Context, target domain.TargetRef, upvoteDelta, downvoteDelta int64) (domain.Tally, error) {
	table, err := tableFor(target.Type)
	if err != nil {
		return domain.Tally{}, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET upvotes = upvotes + $2, downvotes = downvotes + $3
		WHERE id = $1
		RETURNING upvotes, downvotes
	`, table)

	var t domain.Tally
	err = conn(ctx, r.db).QueryRowContext(ctx, query, target.ID, upvoteDelta, downvoteDelta).Scan(&t.Upvotes, &t.Downvotes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Tally{}, domain.ErrTargetNotFound
		}
		if mapped := mapError(err); mapped != err {
			return domain.Tally{}, mapped
		}
		return domain.Tally{}, fmt.Errorf("failed to apply tally delta: %w", err)
	}
	return t, nil
}

func (r *TallyRepository) GetTally(ctx context.Context, target domain.TargetRef) (domain.Tally, error) {
	table, err := tableFor(target.Type)
	if err != nil {
		return domain.Tally{}, err
	}

	query := fmt.Sprintf(`SELECT upvotes, downvotes FROM %s WHERE id = $1`, table)

	var t domain.Tally
	err = conn(ctx, r.db).QueryRowContext(ctx, query, target.ID).Scan(&t.Upvotes, &t.Downvotes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Tally{}, domain.ErrTargetNotFound
		}
		return domain.Tally{}, fmt.Errorf("failed to get tally: %w", err)
	}
	return t, nil
}

// LockTarget takes FOR KEY SHARE on the target row. It lets concurrent votes
// through, since ApplyDelta only needs FOR NO KEY UPDATE, but makes a delete
// wait until the vote commits. A vote that arrives after the delete finds no
// row.
func (r *TallyRepository) LockTarget(ctx context.Context, target domain.TargetRef) error {
	table, err := tableFor(target.Type)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE id = $1 FOR KEY SHARE`, table)

	var one int
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, target.ID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrTargetNotFound
		}
		if mapped := mapError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to lock %s: %w", target.Type, err)
	}
	return nil
}

func (r *TallyRepository) Exists(ctx context.Context, target domain.TargetRef) (bool, error) {
	table, err := tableFor(target.Type)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table)

	var exists bool
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, target.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s: %w", target.Type, err)
	}
	return exists, nil
}

// RecomputeTally locks the target row before counting. A vote transaction
// that has not committed yet is blocked on the same row, so it applies its
// delta on top of the recomputed tally instead of being counted twice.
func (r *TallyRepository) RecomputeTally(ctx context.Context, target domain.TargetRef) (before, after domain.Tally, err error) {
	table, err := tableFor(target.Type)
	if err != nil {
		return domain.Tally{}, domain.Tally{}, err
	}

	err = r.tx.WithinTx(ctx, func(ctx context.Context) error {
		db := conn(ctx, r.db)

		lock := fmt.Sprintf(`SELECT upvotes, downvotes FROM %s WHERE id = $1 FOR UPDATE`, table)
		if err := db.QueryRowContext(ctx, lock, target.ID).Scan(&before.Upvotes, &before.Downvotes); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrTargetNotFound
			}
			return fmt.Errorf("failed to lock %s: %w", target.Type, err)
		}

		var err error
		if after, err = r.votes.CountFor(ctx, target); err != nil {
			return err
		}
		if after == before {
			return nil
		}

		update := fmt.Sprintf(`UPDATE %s SET upvotes = $2, downvotes = $3 WHERE id = $1`, table)
		if _, err := db.ExecContext(ctx, update, target.ID, after.Upvotes, after.Downvotes); err != nil {
			return fmt.Errorf("failed to overwrite tally: %w", err)
		}
		return nil
	})
	return before, after, err
}
