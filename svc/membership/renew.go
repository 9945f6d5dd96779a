package membership

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
)

// RenewParams selects the renewal plan and start. Nil fields default to the
// current plan and today.
type RenewParams struct {
	NewPlanID *uuid.UUID
	StartDate *time.Time
}

// RenewalInfo compares the renewal with the subscription it replaces. Price
// is in paise and durations in days.
type RenewalInfo struct {
	PlanChanged        bool  `json:"plan_changed"`
	PriceDifference    int64 `json:"price_difference"`
	DurationDifference int   `json:"duration_difference"`
	DaysExtended       int   `json:"days_extended"`
}

type RenewResult struct {
	Old  Subscription `json:"old_subscription"`
	New  Subscription `json:"new_subscription"`
	Info RenewalInfo  `json:"renewal_info"`
}

// Renew completes an active or expired subscription and starts a new active
// one for the same member.
func (s *Service) Renew(ctx context.Context, id uuid.UUID, p RenewParams, actor string) (RenewResult, error) {
	var res RenewResult
	err := s.store.InTx(ctx, func(tx Tx) error {
		cur, member, err := s.lockSubscription(ctx, tx, id)
		if err != nil {
			return err
		}
		oldPlan, err := s.plan(ctx, cur.PlanID)
		if err != nil {
			return err
		}
		// A completed subscription reports the conflict with its successor
		// below; every other ineligible state fails here.
		completed, stateErr := next(ctx, cur.Status, EventComplete, nil, msgCannotRenew)
		if stateErr != nil && cur.Status != StatusCompleted {
			return stateErr
		}
		newPlan := oldPlan
		if p.NewPlanID != nil && *p.NewPlanID != cur.PlanID {
			if newPlan, err = s.plan(ctx, *p.NewPlanID); err != nil {
				return err
			}
		}

		today := s.Today()
		start := today
		if p.StartDate != nil {
			start = clock.Date(*p.StartDate)
			if start.Before(today) {
				return validation(msgStartInPast)
			}
		}

		overlap, err := tx.HasOverlap(ctx, cur.MemberID, newPlan.ID, cur.ID, start)
		if err != nil {
			return s.storeErr(err)
		}
		if overlap {
			return conflict(msgOverlap, nil)
		}
		active, err := tx.HasActive(ctx, cur.MemberID, cur.ID)
		if err != nil {
			return s.storeErr(err)
		}
		if active {
			return conflict(msgActiveExists, nil)
		}
		if stateErr != nil {
			return stateErr
		}

		// The old row leaves active first so the new row never trips the
		// single-active constraint.
		done := cur
		done.Status = completed
		if res.Old, err = s.save(ctx, tx, cur, done, member, actor, saveOpts{note: noteCompletedByRenewal}); err != nil {
			return err
		}

		now := s.clock.Now()
		res.New = Subscription{
			ID:             newID(),
			MemberID:       cur.MemberID,
			PlanID:         newPlan.ID,
			StartDate:      start,
			EndDate:        clock.AddDays(start, newPlan.DurationDays),
			Status:         StatusActive,
			IsRenewal:      true,
			MemberSnapshot: snapshotMember(member),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.InsertSubscription(ctx, res.New); err != nil {
			return s.storeErr(err)
		}
		if newPlan.ID != oldPlan.ID {
			if err := tx.InsertPlanChange(ctx, newPlanChange(res.New.ID, oldPlan.ID, newPlan.ID, actor, now)); err != nil {
				return s.storeErr(err)
			}
		}
		entry := HistoryEntry{
			ID:             newID(),
			SubscriptionID: res.New.ID,
			Snapshot:       snapshotSubscription(res.New, newPlan.Name),
			MemberSnapshot: snapshotMember(member),
			Note:           noteRenewed,
			ChangedBy:      actor,
			CreatedAt:      now,
		}
		if err := tx.InsertHistory(ctx, entry); err != nil {
			return s.storeErr(err)
		}

		res.Info = RenewalInfo{
			PlanChanged:        newPlan.ID != oldPlan.ID,
			PriceDifference:    newPlan.Price - oldPlan.Price,
			DurationDifference: newPlan.DurationDays - oldPlan.DurationDays,
			DaysExtended:       newPlan.DurationDays,
		}
		s.publish(ctx, tx, SubscriptionRenewed{
			OldSubscriptionID: res.Old.ID,
			SubscriptionID:    res.New.ID,
			MemberID:          res.New.MemberID,
			OldPlanName:       oldPlan.Name,
			NewPlanName:       newPlan.Name,
			Info:              res.Info,
		})
		return nil
	})
	if err != nil {
		return RenewResult{}, err
	}

	s.committed(ctx, "renew", res.New, actor)
	return res, nil
}
