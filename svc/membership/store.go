package membership

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/queue"
	"github.com/dmitrymomot/gymcrm/svc/catalog"
)

// ListFilter narrows List. Zero values mean "any".
type ListFilter struct {
	MemberID int64
	Status   Status
	// Query matches member name, phone number or biometric id.
	Query  string
	Limit  int
	Offset int
}

// Reader is the read side of a Store.
type Reader interface {
	// GetSubscription returns ErrSubscriptionNotFound for unknown ids.
	GetSubscription(ctx context.Context, id uuid.UUID) (Subscription, error)
	// ListSubscriptions orders by start date then creation time, newest first.
	ListSubscriptions(ctx context.Context, f ListFilter) ([]Subscription, error)
	// MemberSubscriptions returns a member's subscriptions, newest created first.
	MemberSubscriptions(ctx context.Context, memberID int64) ([]Subscription, error)
	// CurrentSubscriptions maps each member with any subscription to its
	// current one: the active subscription, else the most recently created.
	CurrentSubscriptions(ctx context.Context) (map[int64]Subscription, error)
	// ActiveEndingBetween returns active subscriptions with from <= EndDate <= to,
	// ordered by EndDate. A zero from means no lower bound.
	ActiveEndingBetween(ctx context.Context, from, to time.Time) ([]Subscription, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
	// History returns audit rows, newest first.
	History(ctx context.Context, subscriptionID uuid.UUID) ([]HistoryEntry, error)
	// PlanChanges returns changelog rows, newest first.
	PlanChanges(ctx context.Context, subscriptionID uuid.UUID) ([]PlanChange, error)
}

// Tx is one unit of work. Everything done through a Tx commits or rolls
// back together, including enqueued notifications.
type Tx interface {
	Reader
	// LockMember serializes lifecycle operations per member. Returns
	// catalog.ErrMemberNotFound for unknown members.
	LockMember(ctx context.Context, memberID int64) (catalog.Member, error)
	// LockSubscription re-reads a subscription under lock.
	LockSubscription(ctx context.Context, id uuid.UUID) (Subscription, error)
	// HasActive reports whether the member holds an active subscription
	// other than exclude.
	HasActive(ctx context.Context, memberID int64, exclude uuid.UUID) (bool, error)
	// HasOverlap reports whether the member holds an active subscription to
	// planID, other than exclude, whose EndDate is on or after start.
	HasOverlap(ctx context.Context, memberID int64, planID uuid.UUID, exclude uuid.UUID, start time.Time) (bool, error)
	// InsertSubscription returns ErrActiveSubscriptionExists when the
	// single-active constraint rejects the row.
	InsertSubscription(ctx context.Context, s Subscription) error
	UpdateSubscription(ctx context.Context, s Subscription) error
	InsertHistory(ctx context.Context, h HistoryEntry) error
	InsertPlanChange(ctx context.Context, c PlanChange) error
	// Outbox hands fn a task repository bound to this unit of work. A
	// failing fn discards only its own tasks.
	Outbox(ctx context.Context, fn func(repo queue.EnqueuerRepository) error) error
}

// Store persists subscriptions and their audit trail.
type Store interface {
	Reader
	// InTx runs fn in a transaction, committing when fn returns nil. fn's
	// error is returned unwrapped.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
