package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

type answerService struct {
	repo         ports.AnswerRepository
	questionRepo ports.QuestionRepository
	voteRepo     ports.VoteRepository
	tx           ports.Transactor
	log          logrus.FieldLogger
}

func NewAnswerService(
	repo ports.AnswerRepository,
	questionRepo ports.QuestionRepository,
	voteRepo ports.VoteRepository,
	tx ports.Transactor,
	log logrus.FieldLogger,
) ports.AnswerService {
	return &answerService{
		repo:         repo,
		questionRepo: questionRepo,
		voteRepo:     voteRepo,
		tx:           tx,
		log:          log,
	}
}

func (s *answerService) Create(ctx context.Context, input ports.CreateAnswerInput) (*domain.Answer, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}
	if input.AuthorID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing author", domain.ErrInvalidInput)
	}

	if _, err := s.questionRepo.GetByID(ctx, input.QuestionID); err != nil {
		return nil, translateError(err)
	}

	now := time.Now().UTC()
	answer := &domain.Answer{
		ID:          uuid.New(),
		QuestionID:  input.QuestionID,
		AuthorID:    input.AuthorID,
		Content:     content,
		AIGenerated: input.AIGenerated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Save(ctx, answer); err != nil {
		return nil, translateError(err)
	}

	s.log.WithFields(logrus.Fields{
		"answer_id":       answer.ID,
		"question_id":     answer.QuestionID,
		"is_ai_generated": answer.AIGenerated,
	}).Info("answer created")
	return answer, nil
}

func (s *answerService) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]*domain.Answer, error) {
	if _, err := s.questionRepo.GetByID(ctx, questionID); err != nil {
		return nil, translateError(err)
	}

	answers, err := s.repo.ListByQuestion(ctx, questionID)
	if err != nil {
		return nil, translateError(err)
	}
	return answers, nil
}

func (s *answerService) Update(ctx context.Context, input ports.UpdateAnswerInput) (*domain.Answer, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}

	var answer *domain.Answer
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		answer, err = s.repo.GetForUpdate(ctx, input.ID)
		if err != nil {
			return err
		}
		if answer.AuthorID != input.RequesterID {
			return domain.ErrNotAuthor
		}

		answer.Content = content
		answer.UpdatedAt = time.Now().UTC()
		return s.repo.Update(ctx, answer)
	})
	if err != nil {
		return nil, translateError(err)
	}

	s.log.WithField("answer_id", answer.ID).Info("answer updated")
	return answer, nil
}

// Accept locks the question so that two acceptances on it run one after the
// other.
func (s *answerService) Accept(ctx context.Context, id, requesterID uuid.UUID) (*domain.Answer, error) {
	var answer *domain.Answer
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		answer, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		question, err := s.questionRepo.GetForUpdate(ctx, answer.QuestionID)
		if err != nil {
			return err
		}
		if question.AuthorID != requesterID {
			return domain.ErrNotAuthor
		}

		if err := s.repo.Accept(ctx, question.ID, answer.ID); err != nil {
			return err
		}
		answer.Accepted = true
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}

	s.log.WithFields(logrus.Fields{
		"answer_id":   answer.ID,
		"question_id": answer.QuestionID,
	}).Info("answer accepted")
	return answer, nil
}

// Delete locks the answer before removing its votes so that a vote still in
// flight commits first.
func (s *answerService) Delete(ctx context.Context, id, requesterID uuid.UUID) error {
	var removedVotes int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		answer, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if answer.AuthorID != requesterID {
			return domain.ErrNotAuthor
		}

		n, err := s.voteRepo.DeleteAllFor(ctx, domain.TargetRef{Type: domain.TargetAnswer, ID: id})
		if err != nil {
			return err
		}
		removedVotes = n
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return translateError(err)
	}

	s.log.WithFields(logrus.Fields{
		"answer_id": id,
		"votes":     removedVotes,
	}).Info("answer deleted")
	return nil
}
