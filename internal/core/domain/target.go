package domain

import (
	"time"

	"github.com/google/uuid"
)

type TargetType string

const (
	TargetQuestion TargetType = "question"
	TargetAnswer   TargetType = "answer"
)

func ParseTargetType(s string) (TargetType, error) {
	switch t := TargetType(s); t {
	case TargetQuestion, TargetAnswer:
		return t, nil
	}
	return "", ErrInvalidTargetType
}

func (t TargetType) Valid() bool {
	return t == TargetQuestion || t == TargetAnswer
}

// TargetRef identifies a votable entity.
type TargetRef struct {
	Type TargetType `json:"target_type"`
	ID   uuid.UUID  `json:"target_id"`
}

// Tally is the denormalized vote count embedded in a question or answer.
type Tally struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
}

// Add returns t with the deltas of tr applied.
func (t Tally) Add(tr Transition) Tally {
	return Tally{
		Upvotes:   t.Upvotes + tr.UpvoteDelta,
		Downvotes: t.Downvotes + tr.DownvoteDelta,
	}
}

type Question struct {
	ID          uuid.UUID `json:"id"`
	AuthorID    uuid.UUID `json:"author_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Tags        []string  `json:"tags"`
	AIGenerated bool      `json:"is_ai_generated"`
	Views       int64     `json:"views"`
	Tally
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Answer struct {
	ID          uuid.UUID `json:"id"`
	QuestionID  uuid.UUID `json:"question_id"`
	AuthorID    uuid.UUID `json:"author_id"`
	Content     string    `json:"content"`
	AIGenerated bool      `json:"is_ai_generated"`
	Accepted    bool      `json:"is_accepted"`
	Tally
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
