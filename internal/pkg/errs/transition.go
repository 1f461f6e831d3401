package errs

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalTransition              = errors.New("illegal transition")
	ErrConcurrentTransitionInProgress = errors.New("concurrent transition in progress")
	ErrPreconditionFailed             = errors.New("precondition failed")
	ErrVersionConflict                = errors.New("version conflict")
)

// IllegalTransitionError is returned when the requested edge is not part of the
// transition table, including every attempt to leave a terminal state.
type IllegalTransitionError struct {
	From     string
	To       string
	Terminal bool
}

func NewIllegalTransitionError(from, to string, terminal bool) *IllegalTransitionError {
	return &IllegalTransitionError{From: from, To: to, Terminal: terminal}
}

func (e *IllegalTransitionError) Error() string {
	if e.Terminal {
		return fmt.Sprintf("%s: %s -> %s (%s is terminal)", ErrIllegalTransition, e.From, e.To, e.From)
	}
	return fmt.Sprintf("%s: %s -> %s", ErrIllegalTransition, e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// ConcurrentTransitionError is returned when another transition already holds
// the lock of the order. Callers decide whether to retry.
type ConcurrentTransitionError struct {
	OrderID string
}

func NewConcurrentTransitionError(orderID string) *ConcurrentTransitionError {
	return &ConcurrentTransitionError{OrderID: orderID}
}

func (e *ConcurrentTransitionError) Error() string {
	return fmt.Sprintf("%s: order %s", ErrConcurrentTransitionInProgress, e.OrderID)
}

func (e *ConcurrentTransitionError) Unwrap() error {
	return ErrConcurrentTransitionInProgress
}

// PreconditionFailedError is returned when a pre-transition hook rejects a transition.
// It matches both ErrPreconditionFailed and the hook's own error with errors.Is.
type PreconditionFailedError struct {
	Hook  string
	Cause error
}

func NewPreconditionFailedError(hook string, cause error) *PreconditionFailedError {
	return &PreconditionFailedError{Hook: hook, Cause: cause}
}

func (e *PreconditionFailedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: hook %s: %v", ErrPreconditionFailed, e.Hook, e.Cause)
	}
	return fmt.Sprintf("%s: hook %s", ErrPreconditionFailed, e.Hook)
}

func (e *PreconditionFailedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrPreconditionFailed}
	}
	return []error{ErrPreconditionFailed, e.Cause}
}

// VersionConflictError is returned by persistence adapters when the stored
// version of an aggregate no longer matches the version it was loaded with.
type VersionConflictError struct {
	ID       string
	Expected int64
}

func NewVersionConflictError(id string, expected int64) *VersionConflictError {
	return &VersionConflictError{ID: id, Expected: expected}
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("%s: %s, expected version is %d", ErrVersionConflict, e.ID, e.Expected)
}

func (e *VersionConflictError) Unwrap() error {
	return ErrVersionConflict
}
