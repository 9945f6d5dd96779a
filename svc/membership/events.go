package membership

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/logger"
	"github.com/dmitrymomot/gymcrm/pkg/queue"
)

// Notification payloads. Each is enqueued in the transaction of the
// operation that produced it and handled after commit. Task names derive
// from the type names, so renaming a type orphans queued tasks.

type SubscriptionEnrolled struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	MemberID       int64     `json:"member_id"`
}

type PlanChanged struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	MemberID       int64     `json:"member_id"`
	OldPlanID      uuid.UUID `json:"old_plan_id"`
	NewPlanID      uuid.UUID `json:"new_plan_id"`
	OldPlanName    string    `json:"old_plan_name"`
	NewPlanName    string    `json:"new_plan_name"`
}

type SubscriptionRenewed struct {
	OldSubscriptionID uuid.UUID   `json:"old_subscription_id"`
	SubscriptionID    uuid.UUID   `json:"subscription_id"`
	MemberID          int64       `json:"member_id"`
	OldPlanName       string      `json:"old_plan_name"`
	NewPlanName       string      `json:"new_plan_name"`
	Info              RenewalInfo `json:"info"`
}

type SubscriptionCancelled struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	MemberID       int64     `json:"member_id"`
	PlanName       string    `json:"plan_name"`
}

// ExpiryReminder warns a member before (DaysUntilExpiry > 0) or after
// (DaysUntilExpiry <= 0) the end date.
type ExpiryReminder struct {
	SubscriptionID  uuid.UUID `json:"subscription_id"`
	MemberID        int64     `json:"member_id"`
	PlanName        string    `json:"plan_name"`
	EndDate         time.Time `json:"end_date"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
}

// publish enqueues payload through tx. Failures are logged as dependency
// errors and never fail the surrounding operation.
func (s *Service) publish(ctx context.Context, tx Tx, payload any) {
	err := tx.Outbox(ctx, func(repo queue.EnqueuerRepository) error {
		enq, err := queue.NewEnqueuer(repo,
			queue.WithEnqueuerClock(s.clock),
			queue.WithDefaults(
				queue.WithQueue(s.queueName),
				queue.WithMaxRetries(s.maxRetries),
			),
		)
		if err != nil {
			return err
		}
		return enq.Enqueue(ctx, payload)
	})
	if err != nil {
		depErr := newError(KindDependency, "notification not queued", errors.Join(ErrOutbox, err))
		s.log.ErrorContext(ctx, "failed to enqueue notification",
			logger.Event(eventName(payload)),
			logger.Error(depErr),
		)
	}
}

func eventName(payload any) string {
	switch payload.(type) {
	case SubscriptionEnrolled:
		return "subscription.enrolled"
	case PlanChanged:
		return "subscription.plan_changed"
	case SubscriptionRenewed:
		return "subscription.renewed"
	case SubscriptionCancelled:
		return "subscription.cancelled"
	case ExpiryReminder:
		return "subscription.expiry_reminder"
	default:
		return "unknown"
	}
}
