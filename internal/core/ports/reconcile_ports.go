package ports

import (
	"context"

	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
)

type TallyReconcileRepository interface {
	// RecomputeTally recounts the target's votes and overwrites its tally,
	// holding the target row so concurrent votes are not lost. It returns the
	// tally before and after.
	RecomputeTally(ctx context.Context, target domain.TargetRef) (before, after domain.Tally, err error)
}

type ReconcileReport struct {
	Checked  int
	Repaired int
}

type ReconcileService interface {
	ReconcileAll(ctx context.Context) (ReconcileReport, error)
}
