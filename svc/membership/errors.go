package membership

import (
	"errors"
	"fmt"
)

// Kind classifies lifecycle failures. The string value is the stable error
// code clients see.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation_error"
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	// KindDependency marks failures of collaborators (notification outbox)
	// that are logged and never returned to callers.
	KindDependency Kind = "dependency_error"
)

// Error is the typed error every Service operation returns for business
// rule violations. Infrastructure failures are returned as plain wrapped
// errors instead.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Code is the stable machine-readable code.
func (e *Error) Code() string { return string(e.Kind) }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func notFound(msg string, err error) error     { return newError(KindNotFound, msg, err) }
func validation(msg string) error              { return newError(KindValidation, msg, nil) }
func conflict(msg string, err error) error     { return newError(KindConflict, msg, err) }
func invalidState(msg string, err error) error { return newError(KindInvalidState, msg, err) }

// KindOf returns the kind of the first *Error in err's chain, or "" when
// err is not a lifecycle error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }

// Store sentinels. Stores return these; the Service translates them.
var (
	ErrSubscriptionNotFound     = errors.New("subscription not found")
	ErrActiveSubscriptionExists = errors.New("member already has an active subscription")
	ErrStore                    = errors.New("membership store failure")
	ErrOutbox                   = errors.New("failed to enqueue notification")
)

// User-facing messages.
const (
	msgMemberNotFound       = "Member not found"
	msgMemberInactive       = "Member is not active"
	msgPlanNotFound         = "Plan not found"
	msgSubscriptionNotFound = "Subscription not found"
	msgActiveExists         = "Member already has an active subscription"
	msgOverlap              = "Member already has an active subscription to this plan covering the requested start date"
	msgInvalidStatus        = "Status must be pending or active"
	msgOnlyPending          = "Only pending subscriptions can be activated"
	msgCannotCancel         = "Only active or pending subscriptions can be cancelled"
	msgGraceExpired         = "Plan change not allowed. Grace period expired."
	msgSamePlan             = "New plan is same as current plan"
	msgCannotRenew          = "Only active or expired subscriptions can be renewed"
	msgStartInPast          = "Start date cannot be in the past"
	msgEndBeforeStart       = "End date cannot be before start date"
)
