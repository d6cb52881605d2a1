package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrForbidden      = errors.New("forbidden")
	ErrDuplicateEntry = errors.New("duplicate entry")
	// ErrStaleState means a conditional update found the row already moved on
	ErrStaleState = errors.New("This record was changed by another request. Reload and try again.")
)

// ErrInvalidTransition matches every *TransitionError via errors.Is
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError reports a state change that the current status does not allow
type TransitionError struct {
	Entity  string
	Current string
	Target  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move %s from %s to %s", e.Entity, e.Current, e.Target)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NewTransitionError builds a TransitionError for any string-based status type
func NewTransitionError[S ~string](entity string, current, target S) *TransitionError {
	return &TransitionError{Entity: entity, Current: string(current), Target: string(target)}
}
