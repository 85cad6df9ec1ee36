package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/marathonqa/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

type forumFixture struct {
	store     *memory.Store
	questions ports.QuestionService
	answers   ports.AnswerService
	votes     ports.VoteService
}

func newForumFixture() *forumFixture {
	store := memory.New()
	log, _ := logtest.NewNullLogger()
	return &forumFixture{
		store:     store,
		questions: NewQuestionService(store.Questions(), store.Answers(), store.Votes(), store, log),
		answers:   NewAnswerService(store.Answers(), store.Questions(), store.Votes(), store, log),
		votes:     NewVoteService(store.Votes(), store.Tallies(), store.Tallies(), store, VoteServiceConfig{}, log),
	}
}

func TestCreateQuestion(t *testing.T) {
	f := newForumFixture()
	author := uuid.New()

	q, err := f.questions.Create(context.Background(), ports.CreateQuestionInput{
		AuthorID: author,
		Title:    "  First marathon pacing  ",
		Content:  "Should I negative split?",
		Tags:     []string{"Pacing", "pacing ", "", "race-day"},
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, q.ID)
	assert.Equal(t, "First marathon pacing", q.Title)
	assert.Equal(t, []string{"pacing", "race-day"}, q.Tags)
	assert.Equal(t, domain.Tally{}, q.Tally)

	got, err := f.questions.GetQuestion(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Title, got.Title)
}

func TestCreateQuestionValidation(t *testing.T) {
	f := newForumFixture()

	_, err := f.questions.Create(context.Background(), ports.CreateQuestionInput{AuthorID: uuid.New(), Content: "body"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.questions.Create(context.Background(), ports.CreateQuestionInput{AuthorID: uuid.New(), Title: "title"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.questions.Create(context.Background(), ports.CreateQuestionInput{Title: "title", Content: "body"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetQuestionNotFound(t *testing.T) {
	f := newForumFixture()
	_, err := f.questions.GetQuestion(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
	assert.ErrorIs(t, err, domain.ErrTargetNotFound)
}

func TestListQuestionsByTag(t *testing.T) {
	f := newForumFixture()
	ctx := context.Background()
	for _, tags := range [][]string{{"taper"}, {"nutrition"}, {"taper", "nutrition"}} {
		_, err := f.questions.Create(ctx, ports.CreateQuestionInput{AuthorID: uuid.New(), Title: "t", Content: "c", Tags: tags})
		require.NoError(t, err)
	}

	taper, err := f.questions.ListQuestions(ctx, ports.ListQuestionsInput{Tag: " Taper "})
	require.NoError(t, err)
	assert.Len(t, taper, 2)

	all, err := f.questions.ListQuestions(ctx, ports.ListQuestionsInput{Page: 0})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	empty, err := f.questions.ListQuestions(ctx, ports.ListQuestionsInput{Page: 2})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeleteQuestionCascadesVotes(t *testing.T) {
	f := newForumFixture()
	ctx := context.Background()
	author := uuid.New()

	q, err := f.questions.Create(ctx, ports.CreateQuestionInput{AuthorID: author, Title: "t", Content: "c"})
	require.NoError(t, err)
	a, err := f.answers.Create(ctx, ports.CreateAnswerInput{QuestionID: q.ID, AuthorID: uuid.New(), Content: "a"})
	require.NoError(t, err)

	voter := uuid.New()
	questionRef := domain.TargetRef{Type: domain.TargetQuestion, ID: q.ID}
	answerRef := domain.TargetRef{Type: domain.TargetAnswer, ID: a.ID}
	for _, target := range []domain.TargetRef{questionRef, answerRef} {
		_, err := f.votes.CastVote(ctx, ports.CastVoteInput{UserID: voter, TargetType: target.Type, TargetID: target.ID, Value: domain.Upvote})
		require.NoError(t, err)
	}

	assert.ErrorIs(t, f.questions.Delete(ctx, q.ID, voter), domain.ErrNotAuthor)
	require.NoError(t, f.questions.Delete(ctx, q.ID, author))

	for _, target := range []domain.TargetRef{questionRef, answerRef} {
		rec, err := f.store.Votes().Get(ctx, voter, target)
		require.NoError(t, err)
		assert.Nil(t, rec, "orphaned vote on %s", target.Type)
	}

	_, err = f.answers.ListByQuestion(ctx, q.ID)
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)

	_, err = f.votes.CastVote(ctx, ports.CastVoteInput{UserID: voter, TargetType: domain.TargetAnswer, TargetID: a.ID, Value: domain.Upvote})
	assert.ErrorIs(t, err, domain.ErrTargetNotFound)
}

func TestAnswerLifecycle(t *testing.T) {
	f := newForumFixture()
	ctx := context.Background()

	_, err := f.answers.Create(ctx, ports.CreateAnswerInput{QuestionID: uuid.New(), AuthorID: uuid.New(), Content: "orphan"})
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)

	q, err := f.questions.Create(ctx, ports.CreateQuestionInput{AuthorID: uuid.New(), Title: "t", Content: "c"})
	require.NoError(t, err)

	_, err = f.answers.Create(ctx, ports.CreateAnswerInput{QuestionID: q.ID, AuthorID: uuid.New(), Content: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	author := uuid.New()
	a, err := f.answers.Create(ctx, ports.CreateAnswerInput{QuestionID: q.ID, AuthorID: author, Content: "Eat early.", AIGenerated: true})
	require.NoError(t, err)
	assert.True(t, a.AIGenerated)

	voter := uuid.New()
	_, err = f.votes.CastVote(ctx, ports.CastVoteInput{UserID: voter, TargetType: domain.TargetAnswer, TargetID: a.ID, Value: domain.Downvote})
	require.NoError(t, err)

	answers, err := f.answers.ListByQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, domain.Tally{Downvotes: 1}, answers[0].Tally)

	assert.ErrorIs(t, f.answers.Delete(ctx, a.ID, voter), domain.ErrNotAuthor)
	require.NoError(t, f.answers.Delete(ctx, a.ID, author))

	rec, err := f.store.Votes().Get(ctx, voter, domain.TargetRef{Type: domain.TargetAnswer, ID: a.ID})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestGetQuestionCountsViews(t *testing.T) {
	f := newForumFixture()
	ctx := context.Background()

	q, err := f.questions.Create(ctx, ports.CreateQuestionInput{AuthorID: uuid.New(), Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Zero(t, q.Views)

	for range 2 {
		_, err = f.questions.GetQuestion(ctx, q.ID)
		require.NoError(t, err)
	}
	got, err := f.questions.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Views)
}

func TestUpdateQuestion(t *testing.T) {
	f := newForumFixture()
	ctx := context.Background()
	author := uuid.New()

	q, err := f.questions.Create(ctx, ports.CreateQuestionInput{AuthorID: author, Title: "Taper?", Content: "How long?", Tags: []string{"taper"}})
	require.NoError(t, err)

	title := "  Taper length  "
	updated, err := f.questions.Update(ctx, ports.UpdateQuestionInput{ID: q.ID, RequesterID: author, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Taper length", updated.Title)
	assert.Equal(t, "How long?", updated.Content, "fields left nil keep their value")
	assert.Equal(t, []string{"taper"}, updated.Tags)
	assert.False(t, updated.UpdatedAt.Before(q.UpdatedAt))

	updated, err = f.questions.Update(ctx, ports.UpdateQuestionInput{ID: q.ID, RequesterID: author, Tags: []string{"Race-Day", "race-day"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"race-day"}, updated.Tags)

	blank := " "
	_, err = f.questions.Update(ctx, ports.UpdateQuestionInput{ID: q.ID, RequesterID: author, Content: &blank})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.questions.Update(ctx, ports.UpdateQuestionInput{ID: q.ID, RequesterID: uuid.New(), Title: &title})
	assert.ErrorIs(t, err, domain.ErrNotAuthor)

	_, err = f.questions.Update(ctx, ports.UpdateQuestionInput{ID: uuid.New(), RequesterID: author, Title: &title})
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)

	stored, err := f.store.Questions().GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Taper length", stored.Title)
	assert.Equal(t, "How long?", stored.Content)
}

func TestUpdateAnswer(t *testing.T) {
	f := newForumFixture()
	ctx := context.Background()
	author := uuid.New()

	q, err := f.questions.Create(ctx, ports.CreateQuestionInput{AuthorID: uuid.New(), Title: "t", Content: "c"})
	require.NoError(t, err)
	a, err := f.answers.Create(ctx, ports.CreateAnswerInput{QuestionID: q.ID, AuthorID: author, Content: "Gels every 45 minutes."})
	require.NoError(t, err)

	updated, err := f.answers.Update(ctx, ports.UpdateAnswerInput{ID: a.ID, RequesterID: author, Content: "Gels every 30 minutes."})
	require.NoError(t, err)
	assert.Equal(t, "Gels every 30 minutes.", updated.Content)

	_, err = f.answers.Update(ctx, ports.UpdateAnswerInput{ID: a.ID, RequesterID: author, Content: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.answers.Update(ctx, ports.UpdateAnswerInput{ID: a.ID, RequesterID: uuid.New(), Content: "hijack"})
	assert.ErrorIs(t, err, domain.ErrNotAuthor)

	_, err = f.answers.Update(ctx, ports.UpdateAnswerInput{ID: uuid.New(), RequesterID: author, Content: "x"})
	assert.ErrorIs(t, err, domain.ErrAnswerNotFound)
}

func TestAcceptAnswer(t *testing.T) {
	f := newForumFixture()
	ctx := context.Background()
	asker := uuid.New()

	q, err := f.questions.Create(ctx, ports.CreateQuestionInput{AuthorID: asker, Title: "t", Content: "c"})
	require.NoError(t, err)

	answerer := uuid.New()
	first, err := f.answers.Create(ctx, ports.CreateAnswerInput{QuestionID: q.ID, AuthorID: answerer, Content: "first"})
	require.NoError(t, err)
	second, err := f.answers.Create(ctx, ports.CreateAnswerInput{QuestionID: q.ID, AuthorID: answerer, Content: "second"})
	require.NoError(t, err)

	// Only the asker decides, not the answer's author.
	_, err = f.answers.Accept(ctx, first.ID, answerer)
	assert.ErrorIs(t, err, domain.ErrNotAuthor)

	accepted, err := f.answers.Accept(ctx, first.ID, asker)
	require.NoError(t, err)
	assert.True(t, accepted.Accepted)

	_, err = f.answers.Accept(ctx, second.ID, asker)
	require.NoError(t, err)

	answers, err := f.answers.ListByQuestion(ctx, q.ID)
	require.NoError(t, err)
	acceptedIDs := []uuid.UUID{}
	for _, a := range answers {
		if a.Accepted {
			acceptedIDs = append(acceptedIDs, a.ID)
		}
	}
	assert.Equal(t, []uuid.UUID{second.ID}, acceptedIDs)

	_, err = f.answers.Accept(ctx, uuid.New(), asker)
	assert.ErrorIs(t, err, domain.ErrAnswerNotFound)
}
