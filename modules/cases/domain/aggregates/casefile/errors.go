package casefile

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("case not found")
	ErrCaseNumberTaken = errors.New("case number already used")
	ErrCaseMerged      = errors.New("case has been merged and is read-only")
	ErrInvalidOutcome  = errors.New("invalid case outcome")
)

type StageTransitionError struct {
	From Stage
	To   Stage
}

func (e *StageTransitionError) Error() string {
	return fmt.Sprintf("cannot move case from stage %s to %s", e.From, e.To)
}
