package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrTargetNotFound     = errors.New("target not found")
	ErrConflict           = errors.New("vote record changed concurrently")
	ErrContention         = errors.New("too much contention on vote, try again later")
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrInvalidVoteValue  = fmt.Errorf("%w: vote value must be 1 or -1", ErrInvalidInput)
	ErrInvalidTargetType = fmt.Errorf("%w: target type must be question or answer", ErrInvalidInput)
	ErrTallyDrift        = fmt.Errorf("%w: tally would become negative", ErrStorageUnavailable)

	ErrQuestionNotFound = fmt.Errorf("%w: question not found", ErrTargetNotFound)
	ErrAnswerNotFound   = fmt.Errorf("%w: answer not found", ErrTargetNotFound)
	ErrNotAuthor        = errors.New("only the author can do this")
)
