// Package memory keeps every repository in process. It is safe for
// concurrent use and is meant for tests and local development.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

type voteKey struct {
	user   uuid.UUID
	target domain.TargetRef
}

type txKey struct{}

// Store holds all state. Units of work run one at a time; a failed unit is
// rolled back by restoring the snapshot taken when it began. Reads and writes
// made outside WithinTx wait for the running unit of work, so they never see
// half of one and a rollback never discards them.
type Store struct {
	txMu sync.RWMutex
	mu   sync.RWMutex

	questions map[uuid.UUID]domain.Question
	answers   map[uuid.UUID]domain.Answer
	votes     map[voteKey]domain.VoteRecord
}

var _ ports.Transactor = (*Store)(nil)

func New() *Store {
	return &Store{
		questions: make(map[uuid.UUID]domain.Question),
		answers:   make(map[uuid.UUID]domain.Answer),
		votes:     make(map[voteKey]domain.VoteRecord),
	}
}

func (s *Store) Questions() *QuestionRepository {
	return &QuestionRepository{s: s}
}

func (s *Store) Answers() *AnswerRepository {
	return &AnswerRepository{s: s}
}

func (s *Store) Votes() *VoteRepository {
	return &VoteRepository{s: s}
}

// Tallies serves the tally, existence and reconcile ports.
func (s *Store) Tallies() *TallyRepository {
	return &TallyRepository{s: s}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	questions, answers, votes := maps.Clone(s.questions), maps.Clone(s.answers), maps.Clone(s.votes)
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.questions, s.answers, s.votes = questions, answers, votes
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) read(ctx context.Context, fn func()) {
	if ctx.Value(txKey{}) == nil {
		s.txMu.RLock()
		defer s.txMu.RUnlock()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

func (s *Store) write(ctx context.Context, fn func() error) error {
	if ctx.Value(txKey{}) == nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// tally returns the counters of target. Callers must hold mu.
func (s *Store) tally(target domain.TargetRef) (domain.Tally, bool) {
	switch target.Type {
	case domain.TargetQuestion:
		q, ok := s.questions[target.ID]
		return q.Tally, ok
	case domain.TargetAnswer:
		a, ok := s.answers[target.ID]
		return a.Tally, ok
	}
	return domain.Tally{}, false
}

// setTally overwrites the counters of an existing target. Callers must hold mu.
func (s *Store) setTally(target domain.TargetRef, tally domain.Tally) {
	switch target.Type {
	case domain.TargetQuestion:
		q := s.questions[target.ID]
		q.Tally = tally
		s.questions[target.ID] = q
	case domain.TargetAnswer:
		a := s.answers[target.ID]
		a.Tally = tally
		s.answers[target.ID] = a
	}
}

// countVotes callers must hold mu.
func (s *Store) countVotes(target domain.TargetRef) domain.Tally {
	var t domain.Tally
	for k, v := range s.votes {
		if k.target != target {
			continue
		}
		switch v.Value {
		case domain.Upvote:
			t.Upvotes++
		case domain.Downvote:
			t.Downvotes++
		}
	}
	return t
}
