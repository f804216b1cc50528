package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by repositories, services and the delivery layer.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicateTeamName = errors.New("team name already taken")
	ErrTeamLimitReached  = errors.New("team limit reached")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrPhaseViolation    = errors.New("operation not allowed in current phase")
	ErrVoteRejected      = errors.New("vote rejected")
)

// PhaseViolationError is returned by the phase gate when an operation is not
// permitted in the current phase. It matches ErrPhaseViolation with errors.Is.
type PhaseViolationError struct {
	Phase     Phase
	Operation Operation
}

func (e *PhaseViolationError) Error() string {
	return fmt.Sprintf("%s is not allowed during %s", e.Operation, e.Phase)
}

func (e *PhaseViolationError) Unwrap() error {
	return ErrPhaseViolation
}

// InvalidInputError carries a user-facing message for ErrInvalidInput.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

func invalidInput(format string, args ...any) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
