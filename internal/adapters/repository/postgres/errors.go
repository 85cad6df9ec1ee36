package postgres

import (
	"errors"

	"github.com/lib/pq"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
)

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// mapError turns the PostgreSQL errors the stores know how to interpret into
// domain errors and leaves the rest untouched.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected:
		return domain.ErrConflict
	case codeCheckViolation:
		return domain.ErrTallyDrift
	case codeForeignKeyViolation:
		return domain.ErrTargetNotFound
	}
	return err
}
