package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

const questionsPageSize = 20

type questionService struct {
	repo       ports.QuestionRepository
	answerRepo ports.AnswerRepository
	voteRepo   ports.VoteRepository
	tx         ports.Transactor
	log        logrus.FieldLogger
}

func NewQuestionService(
	repo ports.QuestionRepository,
	answerRepo ports.AnswerRepository,
	voteRepo ports.VoteRepository,
	tx ports.Transactor,
	log logrus.FieldLogger,
) ports.QuestionService {
	return &questionService{
		repo:       repo,
		answerRepo: answerRepo,
		voteRepo:   voteRepo,
		tx:         tx,
		log:        log,
	}
}

func (s *questionService) Create(ctx context.Context, input ports.CreateQuestionInput) (*domain.Question, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}
	if input.AuthorID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing author", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	question := &domain.Question{
		ID:          uuid.New(),
		AuthorID:    input.AuthorID,
		Title:       title,
		Content:     content,
		Tags:        normalizeTags(input.Tags),
		AIGenerated: input.AIGenerated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Save(ctx, question); err != nil {
		return nil, translateError(err)
	}

	s.log.WithFields(logrus.Fields{
		"question_id":     question.ID,
		"is_ai_generated": question.AIGenerated,
	}).Info("question created")
	return question, nil
}

func (s *questionService) GetQuestion(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	question, err := s.repo.RecordView(ctx, id)
	if err != nil {
		return nil, translateError(err)
	}
	return question, nil
}

func (s *questionService) ListQuestions(ctx context.Context, input ports.ListQuestionsInput) ([]*domain.Question, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	tag := strings.ToLower(strings.TrimSpace(input.Tag))

	questions, err := s.repo.List(ctx, questionsPageSize, (page-1)*questionsPageSize, tag)
	if err != nil {
		return nil, translateError(err)
	}
	return questions, nil
}

func (s *questionService) Update(ctx context.Context, input ports.UpdateQuestionInput) (*domain.Question, error) {
	var question *domain.Question
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		question, err = s.repo.GetForUpdate(ctx, input.ID)
		if err != nil {
			return err
		}
		if question.AuthorID != input.RequesterID {
			return domain.ErrNotAuthor
		}

		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
			}
			question.Title = title
		}
		if input.Content != nil {
			content := strings.TrimSpace(*input.Content)
			if content == "" {
				return fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
			}
			question.Content = content
		}
		if input.Tags != nil {
			question.Tags = normalizeTags(input.Tags)
		}
		question.UpdatedAt = time.Now().UTC()

		return s.repo.Update(ctx, question)
	})
	if err != nil {
		return nil, translateError(err)
	}

	s.log.WithField("question_id", question.ID).Info("question updated")
	return question, nil
}

// Delete removes the question, its answers and every vote cast on any of them.
// The question and then each answer are locked before their votes are
// removed, so a vote still in flight either commits first and is removed
// with the rest or finds its target gone.
func (s *questionService) Delete(ctx context.Context, id, requesterID uuid.UUID) error {
	var removedVotes int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		question, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if question.AuthorID != requesterID {
			return domain.ErrNotAuthor
		}

		answers, err := s.answerRepo.ListByQuestion(ctx, id)
		if err != nil {
			return err
		}
		for _, answer := range answers {
			// An answer deleted concurrently has taken its votes with it.
			if _, err := s.answerRepo.GetForUpdate(ctx, answer.ID); errors.Is(err, domain.ErrAnswerNotFound) {
				continue
			} else if err != nil {
				return err
			}
			n, err := s.voteRepo.DeleteAllFor(ctx, domain.TargetRef{Type: domain.TargetAnswer, ID: answer.ID})
			if err != nil {
				return err
			}
			removedVotes += n
		}

		n, err := s.voteRepo.DeleteAllFor(ctx, domain.TargetRef{Type: domain.TargetQuestion, ID: id})
		if err != nil {
			return err
		}
		removedVotes += n

		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return translateError(err)
	}

	s.log.WithFields(logrus.Fields{
		"question_id": id,
		"votes":       removedVotes,
	}).Info("question deleted")
	return nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
