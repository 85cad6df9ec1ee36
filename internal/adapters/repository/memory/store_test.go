package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
)

func seedQuestion(t *testing.T, s *Store) domain.TargetRef {
	t.Helper()
	q := &domain.Question{ID: uuid.New(), AuthorID: uuid.New(), Title: "Taper", Content: "How long?", CreatedAt: time.Now()}
	require.NoError(t, s.Questions().Save(context.Background(), q))
	return domain.TargetRef{Type: domain.TargetQuestion, ID: q.ID}
}

func TestVotePutVersioning(t *testing.T) {
	ctx := context.Background()
	s := New()
	target := seedQuestion(t, s)
	user := uuid.New()

	rec := &domain.VoteRecord{UserID: user, Target: target, Value: domain.Upvote}
	require.NoError(t, s.Votes().Put(ctx, rec))
	assert.Equal(t, int64(1), rec.Version)

	// A second insert for the same natural key loses.
	dup := &domain.VoteRecord{UserID: user, Target: target, Value: domain.Downvote}
	assert.ErrorIs(t, s.Votes().Put(ctx, dup), domain.ErrConflict)

	stale := *rec
	rec.Value = domain.Downvote
	require.NoError(t, s.Votes().Put(ctx, rec))
	assert.Equal(t, int64(2), rec.Version)

	stale.Value = domain.Upvote
	assert.ErrorIs(t, s.Votes().Put(ctx, &stale), domain.ErrConflict)

	got, err := s.Votes().Get(ctx, user, target)
	require.NoError(t, err)
	assert.Equal(t, domain.Downvote, got.Value)
}

func TestVoteDeleteVersion(t *testing.T) {
	ctx := context.Background()
	s := New()
	target := seedQuestion(t, s)
	user := uuid.New()

	rec := &domain.VoteRecord{UserID: user, Target: target, Value: domain.Upvote}
	require.NoError(t, s.Votes().Put(ctx, rec))

	assert.ErrorIs(t, s.Votes().DeleteVersion(ctx, user, target, rec.Version+1), domain.ErrConflict)
	require.NoError(t, s.Votes().DeleteVersion(ctx, user, target, rec.Version))
	assert.ErrorIs(t, s.Votes().DeleteVersion(ctx, user, target, rec.Version), domain.ErrConflict)

	// Unconditional delete is idempotent.
	require.NoError(t, s.Votes().Delete(ctx, user, target))

	got, err := s.Votes().Get(ctx, user, target)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestApplyDelta(t *testing.T) {
	ctx := context.Background()
	s := New()
	target := seedQuestion(t, s)

	tally, err := s.Tallies().ApplyDelta(ctx, target, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{Upvotes: 1}, tally)

	_, err = s.Tallies().ApplyDelta(ctx, target, 0, -1)
	assert.ErrorIs(t, err, domain.ErrTallyDrift)

	_, err = s.Tallies().ApplyDelta(ctx, domain.TargetRef{Type: domain.TargetAnswer, ID: uuid.New()}, 1, 0)
	assert.ErrorIs(t, err, domain.ErrTargetNotFound)

	tally, err = s.Tallies().GetTally(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{Upvotes: 1}, tally)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	target := seedQuestion(t, s)
	user := uuid.New()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Votes().Put(ctx, &domain.VoteRecord{UserID: user, Target: target, Value: domain.Upvote}))
		_, err := s.Tallies().ApplyDelta(ctx, target, 1, 0)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rec, err := s.Votes().Get(ctx, user, target)
	require.NoError(t, err)
	assert.Nil(t, rec)

	tally, err := s.Tallies().GetTally(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{}, tally)
}

func TestRecomputeTally(t *testing.T) {
	ctx := context.Background()
	s := New()
	target := seedQuestion(t, s)

	for _, v := range []domain.VoteValue{domain.Upvote, domain.Upvote, domain.Downvote} {
		require.NoError(t, s.Votes().Put(ctx, &domain.VoteRecord{UserID: uuid.New(), Target: target, Value: v}))
	}

	before, after, err := s.Tallies().RecomputeTally(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{}, before)
	assert.Equal(t, domain.Tally{Upvotes: 2, Downvotes: 1}, after)

	counted, err := s.Votes().CountFor(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, after, counted)
}

func TestQuestionDeleteRemovesAnswers(t *testing.T) {
	ctx := context.Background()
	s := New()
	target := seedQuestion(t, s)

	answer := &domain.Answer{ID: uuid.New(), QuestionID: target.ID, AuthorID: uuid.New(), Content: "Two weeks"}
	require.NoError(t, s.Answers().Save(ctx, answer))

	require.NoError(t, s.Questions().Delete(ctx, target.ID))

	_, err := s.Answers().GetByID(ctx, answer.ID)
	assert.ErrorIs(t, err, domain.ErrAnswerNotFound)

	err = s.Answers().Save(ctx, &domain.Answer{ID: uuid.New(), QuestionID: target.ID, Content: "late"})
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
}

func TestQuestionListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Now()

	for i := 0; i < 5; i++ {
		tags := []string{"training"}
		if i%2 == 0 {
			tags = append(tags, "nutrition")
		}
		q := &domain.Question{ID: uuid.New(), Title: "q", Content: "c", Tags: tags, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.Questions().Save(ctx, q))
	}

	all, err := s.Questions().List(ctx, 3, 0, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))

	rest, err := s.Questions().List(ctx, 3, 3, "")
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	tagged, err := s.Questions().List(ctx, 10, 0, "nutrition")
	require.NoError(t, err)
	assert.Len(t, tagged, 3)
}

func TestReadsWaitForUnitOfWork(t *testing.T) {
	ctx := context.Background()
	s := New()
	target := seedQuestion(t, s)
	user := uuid.New()

	written := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.Votes().Put(ctx, &domain.VoteRecord{UserID: user, Target: target, Value: domain.Upvote}); err != nil {
				return err
			}
			close(written)
			<-release
			_, err := s.Tallies().ApplyDelta(ctx, target, 1, 0)
			return err
		})
	}()
	<-written

	read := make(chan *domain.VoteRecord, 1)
	go func() {
		rec, _ := s.Votes().Get(ctx, user, target)
		read <- rec
	}()

	select {
	case <-read:
		t.Fatal("read returned while the unit of work was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-done)
	assert.NotNil(t, <-read)

	tally, err := s.Tallies().GetTally(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{Upvotes: 1}, tally)
}

func TestAnswerAcceptClearsSiblings(t *testing.T) {
	ctx := context.Background()
	s := New()
	question := seedQuestion(t, s)

	first := &domain.Answer{ID: uuid.New(), QuestionID: question.ID, Content: "Two weeks"}
	second := &domain.Answer{ID: uuid.New(), QuestionID: question.ID, Content: "Three weeks"}
	require.NoError(t, s.Answers().Save(ctx, first))
	require.NoError(t, s.Answers().Save(ctx, second))

	require.NoError(t, s.Answers().Accept(ctx, question.ID, first.ID))
	require.NoError(t, s.Answers().Accept(ctx, question.ID, second.ID))

	got, err := s.Answers().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, got.Accepted)
	got, err = s.Answers().GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, got.Accepted)

	other := seedQuestion(t, s)
	assert.ErrorIs(t, s.Answers().Accept(ctx, other.ID, first.ID), domain.ErrAnswerNotFound)
}

func TestQuestionRecordViewAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()
	target := seedQuestion(t, s)

	for range 3 {
		_, err := s.Questions().RecordView(ctx, target.ID)
		require.NoError(t, err)
	}

	updatedAt := time.Now().Add(time.Hour)
	require.NoError(t, s.Questions().Update(ctx, &domain.Question{
		ID: target.ID, Title: "Taper length", Content: "Two or three weeks?", Tags: []string{"taper"}, Views: 100, UpdatedAt: updatedAt,
	}))

	q, err := s.Questions().GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), q.Views)
	assert.Equal(t, "Taper length", q.Title)
	assert.Equal(t, []string{"taper"}, q.Tags)
	assert.True(t, updatedAt.Equal(q.UpdatedAt))

	_, err = s.Questions().RecordView(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
	assert.ErrorIs(t, s.Questions().Update(ctx, &domain.Question{ID: uuid.New()}), domain.ErrQuestionNotFound)
}
