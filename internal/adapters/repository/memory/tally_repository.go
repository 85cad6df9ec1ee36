package memory

import (
	"context"

	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

// TallyRepository reads and writes the counters embedded in questions and
// answers, and answers existence checks for them.
type TallyRepository struct {
	s *Store
}

var (
	_ ports.TallyRepository          = (*TallyRepository)(nil)
	_ ports.TargetChecker            = (*TallyRepository)(nil)
	_ ports.TallyReconcileRepository = (*TallyRepository)(nil)
)

func (r *TallyRepository) ApplyDelta(ctx context.Context, target domain.TargetRef, upvoteDelta, downvoteDelta int64) (domain.Tally, error) {
	var result domain.Tally
	err := r.s.write(ctx, func() error {
		tally, ok := r.s.tally(target)
		if !ok {
			return domain.ErrTargetNotFound
		}
		tally.Upvotes += upvoteDelta
		tally.Downvotes += downvoteDelta
		if tally.Upvotes < 0 || tally.Downvotes < 0 {
			return domain.ErrTallyDrift
		}
		r.s.setTally(target, tally)
		result = tally
		return nil
	})
	return result, err
}

func (r *TallyRepository) GetTally(ctx context.Context, target domain.TargetRef) (domain.Tally, error) {
	var (
		tally domain.Tally
		ok    bool
	)
	r.s.read(ctx, func() {
		tally, ok = r.s.tally(target)
	})
	if !ok {
		return domain.Tally{}, domain.ErrTargetNotFound
	}
	return tally, nil
}

// LockTarget only checks existence: units of work are already serialised.
func (r *TallyRepository) LockTarget(ctx context.Context, target domain.TargetRef) error {
	ok, err := r.Exists(ctx, target)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrTargetNotFound
	}
	return nil
}

func (r *TallyRepository) Exists(ctx context.Context, target domain.TargetRef) (bool, error) {
	var ok bool
	r.s.read(ctx, func() {
		_, ok = r.s.tally(target)
	})
	return ok, nil
}

func (r *TallyRepository) RecomputeTally(ctx context.Context, target domain.TargetRef) (before, after domain.Tally, err error) {
	err = r.s.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if before, err = r.GetTally(ctx, target); err != nil {
			return err
		}
		if after, err = r.s.Votes().CountFor(ctx, target); err != nil {
			return err
		}
		if after == before {
			return nil
		}
		return r.s.write(ctx, func() error {
			r.s.setTally(target, after)
			return nil
		})
	})
	return before, after, err
}
