package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
)

type QuestionRepository interface {
	Save(ctx context.Context, question *domain.Question) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error)
	// GetForUpdate reads the question and holds it until the unit of work
	// ends. Votes on it and new answers to it wait for that.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Question, error)
	List(ctx context.Context, limit, offset int, tag string) ([]*domain.Question, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	// Update overwrites the editable fields: title, content, tags and updated_at.
	Update(ctx context.Context, question *domain.Question) error
	// RecordView adds one to the view counter and returns the question.
	RecordView(ctx context.Context, id uuid.UUID) (*domain.Question, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type AnswerRepository interface {
	Save(ctx context.Context, answer *domain.Answer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Answer, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Answer, error)
	ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]*domain.Answer, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	// Update overwrites content and updated_at.
	Update(ctx context.Context, answer *domain.Answer) error
	// Accept marks the answer as accepted and clears the flag on every other
	// answer to the same question. Run it inside a unit of work.
	Accept(ctx context.Context, questionID, answerID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CreateQuestionInput struct {
	AuthorID    uuid.UUID
	Title       string
	Content     string
	Tags        []string
	AIGenerated bool
}

// UpdateQuestionInput leaves a field unchanged when it is nil.
type UpdateQuestionInput struct {
	ID          uuid.UUID
	RequesterID uuid.UUID
	Title       *string
	Content     *string
	Tags        []string
}

type ListQuestionsInput struct {
	Page int
	Tag  string
}

type QuestionService interface {
	Create(ctx context.Context, input CreateQuestionInput) (*domain.Question, error)
	// GetQuestion counts as a view.
	GetQuestion(ctx context.Context, id uuid.UUID) (*domain.Question, error)
	ListQuestions(ctx context.Context, input ListQuestionsInput) ([]*domain.Question, error)
	Update(ctx context.Context, input UpdateQuestionInput) (*domain.Question, error)
	Delete(ctx context.Context, id, requesterID uuid.UUID) error
}

type CreateAnswerInput struct {
	QuestionID  uuid.UUID
	AuthorID    uuid.UUID
	Content     string
	AIGenerated bool
}

type UpdateAnswerInput struct {
	ID          uuid.UUID
	RequesterID uuid.UUID
	Content     string
}

type AnswerService interface {
	Create(ctx context.Context, input CreateAnswerInput) (*domain.Answer, error)
	ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]*domain.Answer, error)
	Update(ctx context.Context, input UpdateAnswerInput) (*domain.Answer, error)
	// Accept may only be called by the author of the answer's question.
	Accept(ctx context.Context, id, requesterID uuid.UUID) (*domain.Answer, error)
	Delete(ctx context.Context, id, requesterID uuid.UUID) error
}
