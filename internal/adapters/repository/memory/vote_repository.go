package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

type VoteRepository struct {
	s *Store
}

var _ ports.VoteRepository = (*VoteRepository)(nil)

func (r *VoteRepository) Get(ctx context.Context, userID uuid.UUID, target domain.TargetRef) (*domain.VoteRecord, error) {
	var (
		record domain.VoteRecord
		ok     bool
	)
	r.s.read(ctx, func() {
		record, ok = r.s.votes[voteKey{userID, target}]
	})
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (r *VoteRepository) Put(ctx context.Context, record *domain.VoteRecord) error {
	return r.s.write(ctx, func() error {
		key := voteKey{record.UserID, record.Target}
		current, exists := r.s.votes[key]
		now := time.Now().UTC()

		if record.Version == 0 {
			if exists {
				return domain.ErrConflict
			}
			record.CreatedAt = now
		} else {
			if !exists || current.Version != record.Version {
				return domain.ErrConflict
			}
			record.CreatedAt = current.CreatedAt
		}

		record.Version++
		record.UpdatedAt = now
		r.s.votes[key] = *record
		return nil
	})
}

func (r *VoteRepository) DeleteVersion(ctx context.Context, userID uuid.UUID, target domain.TargetRef, version int64) error {
	return r.s.write(ctx, func() error {
		key := voteKey{userID, target}
		current, exists := r.s.votes[key]
		if !exists || current.Version != version {
			return domain.ErrConflict
		}
		delete(r.s.votes, key)
		return nil
	})
}

func (r *VoteRepository) Delete(ctx context.Context, userID uuid.UUID, target domain.TargetRef) error {
	return r.s.write(ctx, func() error {
		delete(r.s.votes, voteKey{userID, target})
		return nil
	})
}

func (r *VoteRepository) DeleteAllFor(ctx context.Context, target domain.TargetRef) (int64, error) {
	var n int64
	err := r.s.write(ctx, func() error {
		for k := range r.s.votes {
			if k.target == target {
				delete(r.s.votes, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *VoteRepository) CountFor(ctx context.Context, target domain.TargetRef) (domain.Tally, error) {
	var t domain.Tally
	r.s.read(ctx, func() {
		t = r.s.countVotes(target)
	})
	return t, nil
}
