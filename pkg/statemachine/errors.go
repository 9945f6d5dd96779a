package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition: from, to and event must be set")
	ErrTerminalState     = errors.New("state is terminal")
)

// ErrNoTransitionAvailable indicates no transition is registered for the
// state/event pair.
type ErrNoTransitionAvailable struct {
	StateName string
	EventName string
}

func (e *ErrNoTransitionAvailable) Error() string {
	return fmt.Sprintf("no transition available from state '%s' for event '%s'", e.StateName, e.EventName)
}

// ErrTransitionRejected indicates every candidate transition was blocked by a
// guard. Reason is the error returned by the last guard evaluated.
type ErrTransitionRejected struct {
	StateName string
	EventName string
	Reason    error
}

func (e *ErrTransitionRejected) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("transition from state '%s' for event '%s' was rejected: %v", e.StateName, e.EventName, e.Reason)
	}
	return fmt.Sprintf("transition from state '%s' for event '%s' was rejected by guards", e.StateName, e.EventName)
}

func (e *ErrTransitionRejected) Unwrap() error { return e.Reason }

func IsNoTransitionAvailableError(err error) bool {
	var e *ErrNoTransitionAvailable
	return errors.As(err, &e)
}

func IsTransitionRejectedError(err error) bool {
	var e *ErrTransitionRejected
	return errors.As(err, &e)
}
