package membership

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusActive, StatusExpired, StatusCancelled, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusExpired, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Subscription is one member's enrollment in one plan for a fixed date
// range. StartDate and EndDate are calendar dates (UTC midnight).
type Subscription struct {
	ID             uuid.UUID      `json:"id"`
	MemberID       int64          `json:"member_id"`
	PlanID         uuid.UUID      `json:"plan_id"`
	StartDate      time.Time      `json:"start_date"`
	EndDate        time.Time      `json:"end_date"`
	Status         Status         `json:"status"`
	IsRenewal      bool           `json:"is_renewal"`
	SignedByMember bool           `json:"signed_by_member"`
	SignatureFile  *string        `json:"signature_file,omitempty"`
	MemberSnapshot MemberSnapshot `json:"member_snapshot"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// GracePeriodDays is the window after the start date during which the plan
// may still be changed: 30 days for plans of a year or longer, 10 otherwise.
func GracePeriodDays(planDurationDays int) int {
	if planDurationDays >= 365 {
		return 30
	}
	return 10
}

// GraceEndsOn is the last day of the grace period, inclusive.
func (s Subscription) GraceEndsOn(planDurationDays int) time.Time {
	return clock.AddDays(s.StartDate, GracePeriodDays(planDurationDays))
}

// InGracePeriod reports whether today is on or before the last grace day.
func (s Subscription) InGracePeriod(planDurationDays int, today time.Time) bool {
	return !clock.Date(today).After(s.GraceEndsOn(planDurationDays))
}

// CanChangePlan reports whether a plan change is allowed today.
func (s Subscription) CanChangePlan(planDurationDays int, today time.Time) bool {
	return s.Status == StatusActive && s.InGracePeriod(planDurationDays, today)
}

// DaysRemaining is EndDate minus today; negative once the end date passed.
func (s Subscription) DaysRemaining(today time.Time) int {
	return clock.DaysBetween(today, s.EndDate)
}

// tracked reports whether any audited field differs between s and o.
func (s Subscription) tracked(o Subscription) bool {
	return s.PlanID != o.PlanID ||
		s.Status != o.Status ||
		!s.StartDate.Equal(o.StartDate) ||
		!s.EndDate.Equal(o.EndDate) ||
		s.IsRenewal != o.IsRenewal
}

// sameRow reports whether saving o over s would change nothing.
func (s Subscription) sameRow(o Subscription) bool {
	if s.tracked(o) || s.SignedByMember != o.SignedByMember {
		return false
	}
	switch {
	case s.SignatureFile == nil && o.SignatureFile == nil:
		return true
	case s.SignatureFile == nil || o.SignatureFile == nil:
		return false
	default:
		return *s.SignatureFile == *o.SignatureFile
	}
}
