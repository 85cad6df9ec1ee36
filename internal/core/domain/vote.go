package domain

import (
	"time"

	"github.com/google/uuid"
)

// VoteValue is a user's vote on a target. NoVote stands for the absence of a
// record and is never persisted.
type VoteValue int8

const (
	Downvote VoteValue = -1
	NoVote   VoteValue = 0
	Upvote   VoteValue = 1
)

func (v VoteValue) Valid() bool {
	return v == Upvote || v == Downvote
}

func (v VoteValue) String() string {
	switch v {
	case Upvote:
		return "upvote"
	case Downvote:
		return "downvote"
	case NoVote:
		return "none"
	}
	return "invalid"
}

// ParseVoteType accepts the "upvote"/"downvote" spelling used by older clients.
func ParseVoteType(s string) (VoteValue, error) {
	switch s {
	case "upvote", "up":
		return Upvote, nil
	case "downvote", "down":
		return Downvote, nil
	}
	return NoVote, ErrInvalidVoteValue
}

// VoteRecord is one user's current vote on one target. (UserID, Target) is
// its natural key. Version starts at 1 on insert and is bumped by every
// update; zero means the record has not been stored yet.
type VoteRecord struct {
	UserID    uuid.UUID `json:"user_id"`
	Target    TargetRef `json:"target"`
	Value     VoteValue `json:"value"`
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
