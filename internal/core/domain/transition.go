package domain

// TransitionKind names a row of the vote transition table.
type TransitionKind string

const (
	NewUpvote       TransitionKind = "new_upvote"
	NewDownvote     TransitionKind = "new_downvote"
	RetractUpvote   TransitionKind = "retract_upvote"
	RetractDownvote TransitionKind = "retract_downvote"
	FlipToDownvote  TransitionKind = "flip_up_to_down"
	FlipToUpvote    TransitionKind = "flip_down_to_up"
)

// Transition is the outcome of applying a requested vote over an existing one.
type Transition struct {
	Kind          TransitionKind
	Previous      VoteValue
	Next          VoteValue
	UpvoteDelta   int64
	DownvoteDelta int64
}

// NextTransition computes the new vote state and the counter deltas for a
// user who currently holds existing (NoVote when they have not voted) and
// submits requested. Repeating the current vote retracts it; the opposite
// vote flips it.
func NextTransition(existing, requested VoteValue) (Transition, error) {
	if !requested.Valid() {
		return Transition{}, ErrInvalidVoteValue
	}
	if existing != NoVote && !existing.Valid() {
		return Transition{}, ErrInvalidVoteValue
	}

	t := Transition{Previous: existing}
	switch {
	case existing == NoVote && requested == Upvote:
		t.Kind, t.Next, t.UpvoteDelta = NewUpvote, Upvote, 1
	case existing == NoVote && requested == Downvote:
		t.Kind, t.Next, t.DownvoteDelta = NewDownvote, Downvote, 1
	case existing == Upvote && requested == Upvote:
		t.Kind, t.Next, t.UpvoteDelta = RetractUpvote, NoVote, -1
	case existing == Downvote && requested == Downvote:
		t.Kind, t.Next, t.DownvoteDelta = RetractDownvote, NoVote, -1
	case existing == Upvote && requested == Downvote:
		t.Kind, t.Next, t.UpvoteDelta, t.DownvoteDelta = FlipToDownvote, Downvote, -1, 1
	case existing == Downvote && requested == Upvote:
		t.Kind, t.Next, t.UpvoteDelta, t.DownvoteDelta = FlipToUpvote, Upvote, 1, -1
	}
	return t, nil
}
