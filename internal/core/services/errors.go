package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
)

// translateError keeps domain errors and cancellation as they are and hides
// anything else behind domain.ErrStorageUnavailable.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrTargetNotFound),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrContention),
		errors.Is(err, domain.ErrStorageUnavailable),
		errors.Is(err, domain.ErrNotAuthor),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}
