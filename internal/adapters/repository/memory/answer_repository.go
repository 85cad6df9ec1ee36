package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

type AnswerRepository struct {
	s *Store
}

var _ ports.AnswerRepository = (*AnswerRepository)(nil)

func (r *AnswerRepository) Save(ctx context.Context, answer *domain.Answer) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.questions[answer.QuestionID]; !ok {
			return domain.ErrQuestionNotFound
		}
		r.s.answers[answer.ID] = *answer
		return nil
	})
}

func (r *AnswerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Answer, error) {
	var (
		a  domain.Answer
		ok bool
	)
	r.s.read(ctx, func() {
		a, ok = r.s.answers[id]
	})
	if !ok {
		return nil, domain.ErrAnswerNotFound
	}
	return &a, nil
}

func (r *AnswerRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Answer, error) {
	return r.GetByID(ctx, id)
}

func (r *AnswerRepository) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]*domain.Answer, error) {
	var answers []*domain.Answer
	r.s.read(ctx, func() {
		for _, a := range r.s.answers {
			if a.QuestionID == questionID {
				answers = append(answers, &a)
			}
		}
	})
	sort.Slice(answers, func(i, j int) bool {
		return answers[i].CreatedAt.Before(answers[j].CreatedAt)
	})
	return answers, nil
}

func (r *AnswerRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	r.s.read(ctx, func() {
		ids = make([]uuid.UUID, 0, len(r.s.answers))
		for id := range r.s.answers {
			ids = append(ids, id)
		}
	})
	return ids, nil
}

func (r *AnswerRepository) Update(ctx context.Context, answer *domain.Answer) error {
	return r.s.write(ctx, func() error {
		a, ok := r.s.answers[answer.ID]
		if !ok {
			return domain.ErrAnswerNotFound
		}
		a.Content = answer.Content
		a.UpdatedAt = answer.UpdatedAt
		r.s.answers[a.ID] = a
		return nil
	})
}

func (r *AnswerRepository) Accept(ctx context.Context, questionID, answerID uuid.UUID) error {
	return r.s.write(ctx, func() error {
		target, ok := r.s.answers[answerID]
		if !ok || target.QuestionID != questionID {
			return domain.ErrAnswerNotFound
		}
		for id, a := range r.s.answers {
			if a.QuestionID == questionID && a.Accepted != (id == answerID) {
				a.Accepted = id == answerID
				r.s.answers[id] = a
			}
		}
		return nil
	})
}

func (r *AnswerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.answers[id]; !ok {
			return domain.ErrAnswerNotFound
		}
		delete(r.s.answers, id)
		return nil
	})
}
