package membership

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/gymcrm/pkg/statemachine"
)

// Event drives a status transition.
type Event string

const (
	EventActivate   Event = "activate"
	EventCancel     Event = "cancel"
	EventChangePlan Event = "change_plan"
	EventExpire     Event = "expire"
	EventComplete   Event = "complete"
)

var errGraceExpired = errors.New("grace period expired")

// graceInput is the data the change_plan guard inspects.
type graceInput struct {
	sub          Subscription
	durationDays int
	today        time.Time
}

func inGrace(_ context.Context, _ Status, _ Event, data any) error {
	in, ok := data.(graceInput)
	if !ok || !in.sub.InGracePeriod(in.durationDays, in.today) {
		return errGraceExpired
	}
	return nil
}

// transitions is shared by every Service; statemachine.Table is safe for
// concurrent reads.
var transitions = statemachine.NewTable[Status, Event]().
	Add(StatusPending, EventActivate, StatusActive).
	Add(StatusPending, EventCancel, StatusCancelled).
	Add(StatusActive, EventCancel, StatusCancelled).
	Add(StatusActive, EventChangePlan, StatusActive, inGrace).
	Add(StatusActive, EventExpire, StatusExpired).
	Add(StatusActive, EventComplete, StatusCompleted).
	Add(StatusExpired, EventComplete, StatusCompleted).
	Terminal(StatusCancelled, StatusCompleted)

// AllowedEvents lists the events a subscription in status s may receive,
// ignoring guards.
func AllowedEvents(s Status) []Event {
	return transitions.Events(s)
}

// next resolves a transition, turning table errors into InvalidState errors
// carrying msg.
func next(ctx context.Context, from Status, ev Event, data any, msg string) (Status, error) {
	to, err := transitions.Next(ctx, from, ev, data)
	if err != nil {
		return from, invalidState(msg, err)
	}
	return to, nil
}
