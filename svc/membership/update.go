package membership

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
)

// UpdateParams patches a subscription. Nil fields are left alone. Status
// only moves through the lifecycle operations, and PlanID obeys the same
// active-and-in-grace rule as ChangePlan.
type UpdateParams struct {
	PlanID         *uuid.UUID
	StartDate      *time.Time
	EndDate        *time.Time
	SignedByMember *bool
	SignatureFile  *string
}

// Update is the administrative save path. Changing StartDate does not
// recompute EndDate. Audited fields get a history row through the same
// trigger every save uses.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p UpdateParams, actor string) (Subscription, error) {
	var out Subscription
	err := s.store.InTx(ctx, func(tx Tx) error {
		sub, member, err := s.lockSubscription(ctx, tx, id)
		if err != nil {
			return err
		}

		updated := sub
		if p.PlanID != nil && *p.PlanID != sub.PlanID {
			oldPlan, err := s.plan(ctx, sub.PlanID)
			if err != nil {
				return err
			}
			in := graceInput{sub: sub, durationDays: oldPlan.DurationDays, today: s.Today()}
			if _, err := next(ctx, sub.Status, EventChangePlan, in, msgGraceExpired); err != nil {
				return err
			}
			plan, err := s.plan(ctx, *p.PlanID)
			if err != nil {
				return err
			}
			updated.PlanID = plan.ID
		}
		if p.StartDate != nil {
			updated.StartDate = clock.Date(*p.StartDate)
		}
		if p.EndDate != nil {
			updated.EndDate = clock.Date(*p.EndDate)
		}
		if updated.EndDate.Before(updated.StartDate) {
			return validation(msgEndBeforeStart)
		}
		if p.SignedByMember != nil {
			updated.SignedByMember = *p.SignedByMember
		}
		if p.SignatureFile != nil {
			file := *p.SignatureFile
			updated.SignatureFile = &file
		}

		out, err = s.save(ctx, tx, sub, updated, member, actor, saveOpts{})
		return err
	})
	if err != nil {
		return Subscription{}, err
	}

	s.committed(ctx, "update", out, actor)
	return out, nil
}
