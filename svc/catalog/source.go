package catalog

import (
	"context"

	"github.com/google/uuid"
)

// PlanSource reads membership plans.
type PlanSource interface {
	// GetPlan returns ErrPlanNotFound for unknown ids.
	GetPlan(ctx context.Context, id uuid.UUID) (Plan, error)
	// ListPlans returns plans ordered by duration then name.
	ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error)
}

// MemberDirectory reads gym members.
type MemberDirectory interface {
	// GetMember returns ErrMemberNotFound for unknown ids.
	GetMember(ctx context.Context, id int64) (Member, error)
	// LookupMember returns ErrInvalidLookup unless exactly one key is set.
	LookupMember(ctx context.Context, l Lookup) (Member, error)
	ListMembers(ctx context.Context, f MemberFilter) ([]Member, error)
}

// PlanWriter persists plans. Only seeding uses it.
type PlanWriter interface {
	UpsertPlan(ctx context.Context, p Plan) error
}
