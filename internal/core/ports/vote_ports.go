package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
)

// VoteRepository stores one record per (user, target).
type VoteRepository interface {
	// Get returns nil when the user has not voted on the target.
	Get(ctx context.Context, userID uuid.UUID, target domain.TargetRef) (*domain.VoteRecord, error)
	// Put inserts the record when its Version is zero and otherwise updates it
	// only if the stored version still matches. On success the record's
	// Version is advanced. A lost race yields domain.ErrConflict.
	Put(ctx context.Context, record *domain.VoteRecord) error
	// DeleteVersion removes the record only if the stored version matches,
	// failing with domain.ErrConflict otherwise.
	DeleteVersion(ctx context.Context, userID uuid.UUID, target domain.TargetRef, version int64) error
	// Delete is idempotent.
	Delete(ctx context.Context, userID uuid.UUID, target domain.TargetRef) error
	DeleteAllFor(ctx context.Context, target domain.TargetRef) (int64, error)
	// CountFor tallies the stored records of the target.
	CountFor(ctx context.Context, target domain.TargetRef) (domain.Tally, error)
}

// TallyRepository owns the counters embedded in questions and answers.
type TallyRepository interface {
	// ApplyDelta adds the deltas atomically and returns the resulting tally.
	ApplyDelta(ctx context.Context, target domain.TargetRef, upvoteDelta, downvoteDelta int64) (domain.Tally, error)
	GetTally(ctx context.Context, target domain.TargetRef) (domain.Tally, error)
	// LockTarget holds the target until the unit of work ends so that it
	// cannot be deleted underneath a vote. Concurrent votes do not block each
	// other. A missing target yields domain.ErrTargetNotFound.
	LockTarget(ctx context.Context, target domain.TargetRef) error
}

type TargetChecker interface {
	Exists(ctx context.Context, target domain.TargetRef) (bool, error)
}

type CastVoteInput struct {
	UserID     uuid.UUID
	TargetType domain.TargetType
	TargetID   uuid.UUID
	Value      domain.VoteValue
}

type VoteState struct {
	CurrentVote domain.VoteValue `json:"current_vote"`
	domain.Tally
}

type VoteService interface {
	CastVote(ctx context.Context, input CastVoteInput) (*VoteState, error)
	GetVote(ctx context.Context, userID uuid.UUID, target domain.TargetRef) (*VoteState, error)
}
