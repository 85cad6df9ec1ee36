package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

func TestReconcileAllRepairsDrift(t *testing.T) {
	f := newForumFixture()
	ctx := context.Background()
	log, hook := logtest.NewNullLogger()
	svc := NewReconcileService(f.store.Questions(), f.store.Answers(), f.store.Tallies(), 2, log)

	q, err := f.questions.Create(ctx, ports.CreateQuestionInput{AuthorID: uuid.New(), Title: "t", Content: "c"})
	require.NoError(t, err)
	a, err := f.answers.Create(ctx, ports.CreateAnswerInput{QuestionID: q.ID, AuthorID: uuid.New(), Content: "a"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.votes.CastVote(ctx, ports.CastVoteInput{UserID: uuid.New(), TargetType: domain.TargetQuestion, TargetID: q.ID, Value: domain.Upvote})
		require.NoError(t, err)
	}

	// A record written without its counter delta, as after a crash between
	// the two writes.
	answerRef := domain.TargetRef{Type: domain.TargetAnswer, ID: a.ID}
	require.NoError(t, f.store.Votes().Put(ctx, &domain.VoteRecord{UserID: uuid.New(), Target: answerRef, Value: domain.Downvote}))

	report, err := svc.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, ports.ReconcileReport{Checked: 2, Repaired: 1}, report)
	assert.NotEmpty(t, hook.AllEntries())

	tally, err := f.store.Tallies().GetTally(ctx, answerRef)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{Downvotes: 1}, tally)

	tally, err = f.store.Tallies().GetTally(ctx, domain.TargetRef{Type: domain.TargetQuestion, ID: q.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{Upvotes: 3}, tally)

	report, err = svc.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Repaired)
}
