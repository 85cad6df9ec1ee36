package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
	"github.com/vncsmyrnk/marathonqa/internal/metrics"
)

const (
	DefaultVoteMaxAttempts = 3
	DefaultVoteRetryDelay  = 10 * time.Millisecond
)

type VoteServiceConfig struct {
	// MaxAttempts bounds how many times a vote is recomputed after losing an
	// optimistic-concurrency race before failing with domain.ErrContention.
	MaxAttempts uint
	RetryDelay  time.Duration
}

type voteService struct {
	voteRepo  ports.VoteRepository
	tallyRepo ports.TallyRepository
	targets   ports.TargetChecker
	tx        ports.Transactor
	cfg       VoteServiceConfig
	log       logrus.FieldLogger
}

func NewVoteService(
	voteRepo ports.VoteRepository,
	tallyRepo ports.TallyRepository,
	targets ports.TargetChecker,
	tx ports.Transactor,
	cfg VoteServiceConfig,
	log logrus.FieldLogger,
) ports.VoteService {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultVoteMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultVoteRetryDelay
	}
	return &voteService{
		voteRepo:  voteRepo,
		tallyRepo: tallyRepo,
		targets:   targets,
		tx:        tx,
		cfg:       cfg,
		log:       log,
	}
}

func (s *voteService) CastVote(ctx context.Context, input ports.CastVoteInput) (*ports.VoteState, error) {
	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", domain.ErrInvalidInput)
	}
	if !input.TargetType.Valid() {
		return nil, domain.ErrInvalidTargetType
	}
	if !input.Value.Valid() {
		return nil, domain.ErrInvalidVoteValue
	}

	target := domain.TargetRef{Type: input.TargetType, ID: input.TargetID}
	if err := s.ensureTarget(ctx, target); err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{
		"user_id":     input.UserID,
		"target_type": target.Type,
		"target_id":   target.ID,
	})

	var (
		state      *ports.VoteState
		transition domain.Transition
	)
	err := retry.Do(
		func() error {
			st, tr, err := s.castOnce(ctx, input.UserID, target, input.Value)
			if err != nil {
				return err
			}
			state, transition = st, tr
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.cfg.MaxAttempts),
		retry.Delay(s.cfg.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, domain.ErrConflict)
		}),
		retry.OnRetry(func(n uint, err error) {
			metrics.VoteConflicts.Inc()
			log.WithError(err).WithField("attempt", n+1).Warn("vote lost a concurrent update, retrying")
		}),
	)
	if err != nil && ctx.Err() != nil {
		// The unit of work was rolled back, so nothing of this vote remains.
		log.WithError(err).Info("vote abandoned by caller")
		return nil, ctx.Err()
	}
	if errors.Is(err, domain.ErrConflict) {
		metrics.VoteContention.Inc()
		log.WithError(err).Error("giving up on vote after repeated conflicts")
		return nil, fmt.Errorf("%w: gave up after %d attempts", domain.ErrContention, s.cfg.MaxAttempts)
	}
	if err != nil {
		log.WithError(err).Error("failed to cast vote")
		return nil, translateError(err)
	}

	metrics.VotesCast.WithLabelValues(string(target.Type), string(transition.Kind)).Inc()
	log.WithField("transition", transition.Kind).Debug("vote cast")
	return state, nil
}

// castOnce runs one read-compute-write pass. The target is locked first, then
// the record is written, then the counter delta is applied, all in the same
// unit of work. Cancelling ctx at any point rolls the whole pass back.
func (s *voteService) castOnce(ctx context.Context, userID uuid.UUID, target domain.TargetRef, requested domain.VoteValue) (*ports.VoteState, domain.Transition, error) {
	var (
		state      *ports.VoteState
		transition domain.Transition
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tallyRepo.LockTarget(ctx, target); err != nil {
			return err
		}

		existing, err := s.voteRepo.Get(ctx, userID, target)
		if err != nil {
			return err
		}

		current := domain.NoVote
		if existing != nil {
			current = existing.Value
		}
		transition, err = domain.NextTransition(current, requested)
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		switch {
		case transition.Next == domain.NoVote:
			err = s.voteRepo.DeleteVersion(ctx, userID, target, existing.Version)
		case existing == nil:
			err = s.voteRepo.Put(ctx, &domain.VoteRecord{
				UserID: userID,
				Target: target,
				Value:  transition.Next,
			})
		default:
			existing.Value = transition.Next
			err = s.voteRepo.Put(ctx, existing)
		}
		if err != nil {
			return err
		}

		tally, err := s.tallyRepo.ApplyDelta(ctx, target, transition.UpvoteDelta, transition.DownvoteDelta)
		if err != nil {
			return err
		}

		state = &ports.VoteState{CurrentVote: transition.Next, Tally: tally}
		return nil
	})
	return state, transition, err
}

// GetVote reads the tally and the caller's record in one unit of work.
func (s *voteService) GetVote(ctx context.Context, userID uuid.UUID, target domain.TargetRef) (*ports.VoteState, error) {
	if !target.Type.Valid() {
		return nil, domain.ErrInvalidTargetType
	}

	var state *ports.VoteState
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		tally, err := s.tallyRepo.GetTally(ctx, target)
		if err != nil {
			return err
		}

		state = &ports.VoteState{CurrentVote: domain.NoVote, Tally: tally}
		if userID == uuid.Nil {
			return nil
		}

		record, err := s.voteRepo.Get(ctx, userID, target)
		if err != nil {
			return err
		}
		if record != nil {
			state.CurrentVote = record.Value
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return state, nil
}

func (s *voteService) ensureTarget(ctx context.Context, target domain.TargetRef) error {
	ok, err := s.targets.Exists(ctx, target)
	if err != nil {
		return translateError(err)
	}
	if !ok {
		return domain.ErrTargetNotFound
	}
	return nil
}
