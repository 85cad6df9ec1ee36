package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

type QuestionRepository struct {
	s *Store
}

var _ ports.QuestionRepository = (*QuestionRepository)(nil)

func (r *QuestionRepository) Save(ctx context.Context, question *domain.Question) error {
	return r.s.write(ctx, func() error {
		q := *question
		q.Tags = slices.Clone(question.Tags)
		r.s.questions[q.ID] = q
		return nil
	})
}

func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	var (
		q  domain.Question
		ok bool
	)
	r.s.read(ctx, func() {
		q, ok = r.s.questions[id]
		q.Tags = slices.Clone(q.Tags)
	})
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}
	return &q, nil
}

// GetForUpdate needs no lock of its own since units of work are serialised.
func (r *QuestionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	return r.GetByID(ctx, id)
}

func (r *QuestionRepository) List(ctx context.Context, limit, offset int, tag string) ([]*domain.Question, error) {
	var questions []*domain.Question
	r.s.read(ctx, func() {
		for _, q := range r.s.questions {
			if tag != "" && !slices.Contains(q.Tags, tag) {
				continue
			}
			q.Tags = slices.Clone(q.Tags)
			questions = append(questions, &q)
		}
	})
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].CreatedAt.After(questions[j].CreatedAt)
	})

	if offset >= len(questions) {
		return nil, nil
	}
	end := min(offset+limit, len(questions))
	return questions[offset:end], nil
}

func (r *QuestionRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	r.s.read(ctx, func() {
		ids = make([]uuid.UUID, 0, len(r.s.questions))
		for id := range r.s.questions {
			ids = append(ids, id)
		}
	})
	return ids, nil
}

func (r *QuestionRepository) Update(ctx context.Context, question *domain.Question) error {
	return r.s.write(ctx, func() error {
		q, ok := r.s.questions[question.ID]
		if !ok {
			return domain.ErrQuestionNotFound
		}
		q.Title = question.Title
		q.Content = question.Content
		q.Tags = slices.Clone(question.Tags)
		q.UpdatedAt = question.UpdatedAt
		r.s.questions[q.ID] = q
		return nil
	})
}

func (r *QuestionRepository) RecordView(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	var q domain.Question
	err := r.s.write(ctx, func() error {
		var ok bool
		q, ok = r.s.questions[id]
		if !ok {
			return domain.ErrQuestionNotFound
		}
		q.Views++
		r.s.questions[id] = q
		q.Tags = slices.Clone(q.Tags)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Delete removes the question together with its answers.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.questions[id]; !ok {
			return domain.ErrQuestionNotFound
		}
		delete(r.s.questions, id)
		for answerID, a := range r.s.answers {
			if a.QuestionID == id {
				delete(r.s.answers, answerID)
			}
		}
		return nil
	})
}
