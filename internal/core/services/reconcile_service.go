package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
	"github.com/vncsmyrnk/marathonqa/internal/metrics"
	"golang.org/x/sync/errgroup"
)

const DefaultReconcileConcurrency = 8

type reconcileService struct {
	questionRepo ports.QuestionRepository
	answerRepo   ports.AnswerRepository
	tallyRepo    ports.TallyReconcileRepository
	concurrency  int
	log          logrus.FieldLogger
}

func NewReconcileService(
	questionRepo ports.QuestionRepository,
	answerRepo ports.AnswerRepository,
	tallyRepo ports.TallyReconcileRepository,
	concurrency int,
	log logrus.FieldLogger,
) ports.ReconcileService {
	if concurrency < 1 {
		concurrency = DefaultReconcileConcurrency
	}
	return &reconcileService{
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		tallyRepo:    tallyRepo,
		concurrency:  concurrency,
		log:          log,
	}
}

// ReconcileAll recounts the votes of every question and answer and rewrites
// any tally that disagrees with its vote records.
func (s *reconcileService) ReconcileAll(ctx context.Context) (ports.ReconcileReport, error) {
	questionIDs, err := s.questionRepo.ListIDs(ctx)
	if err != nil {
		return ports.ReconcileReport{}, fmt.Errorf("failed to list questions: %w", err)
	}
	answerIDs, err := s.answerRepo.ListIDs(ctx)
	if err != nil {
		return ports.ReconcileReport{}, fmt.Errorf("failed to list answers: %w", err)
	}

	targets := make([]domain.TargetRef, 0, len(questionIDs)+len(answerIDs))
	targets = appendTargets(targets, domain.TargetQuestion, questionIDs)
	targets = appendTargets(targets, domain.TargetAnswer, answerIDs)

	var checked, repaired atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, target := range targets {
		g.Go(func() error {
			before, after, err := s.tallyRepo.RecomputeTally(gctx, target)
			if err != nil {
				return fmt.Errorf("failed to reconcile %s %s: %w", target.Type, target.ID, err)
			}
			checked.Add(1)
			if before != after {
				repaired.Add(1)
				metrics.TallyRepairs.WithLabelValues(string(target.Type)).Inc()
				s.log.WithFields(logrus.Fields{
					"target_type": target.Type,
					"target_id":   target.ID,
					"before":      before,
					"after":       after,
				}).Warn("tally disagreed with vote records, repaired")
			}
			return nil
		})
	}

	err = g.Wait()
	report := ports.ReconcileReport{Checked: int(checked.Load()), Repaired: int(repaired.Load())}
	if err != nil {
		return report, err
	}

	s.log.WithFields(logrus.Fields{
		"checked":  report.Checked,
		"repaired": report.Repaired,
	}).Info("tally reconciliation finished")
	return report, nil
}

func appendTargets(targets []domain.TargetRef, typ domain.TargetType, ids []uuid.UUID) []domain.TargetRef {
	for _, id := range ids {
		targets = append(targets, domain.TargetRef{Type: typ, ID: id})
	}
	return targets
}
