package membership

import (
	"context"

	"github.com/dmitrymomot/gymcrm/svc/catalog"
)

type saveOpts struct {
	// note overrides the automatic history note.
	note string
	// planChangeLogged suppresses the automatic changelog row.
	planChangeLogged bool
}

// save is the single update path for subscriptions. When an audited field
// (plan, status, dates, renewal flag) changes it first records the prior
// row in history; identical saves write nothing.
func (s *Service) save(ctx context.Context, tx Tx, prior, updated Subscription, member catalog.Member, actor string, opts saveOpts) (Subscription, error) {
	if prior.sameRow(updated) {
		return prior, nil
	}

	now := s.clock.Now()
	if prior.tracked(updated) {
		priorPlan, err := s.plan(ctx, prior.PlanID)
		if err != nil {
			return Subscription{}, err
		}

		note := opts.note
		if note == "" {
			note = noteUpdated
			if prior.PlanID != updated.PlanID && prior.CanChangePlan(priorPlan.DurationDays, s.Today()) {
				note = noteGraceChange
				if !opts.planChangeLogged {
					if err := tx.InsertPlanChange(ctx, newPlanChange(prior.ID, prior.PlanID, updated.PlanID, actor, now)); err != nil {
						return Subscription{}, s.storeErr(err)
					}
				}
			}
		}

		entry := HistoryEntry{
			ID:             newID(),
			SubscriptionID: prior.ID,
			Snapshot:       snapshotSubscription(prior, priorPlan.Name),
			MemberSnapshot: snapshotMember(member),
			Note:           note,
			ChangedBy:      actor,
			CreatedAt:      now,
		}
		if err := tx.InsertHistory(ctx, entry); err != nil {
			return Subscription{}, s.storeErr(err)
		}
	}

	updated.CreatedAt = prior.CreatedAt
	updated.UpdatedAt = now
	if err := tx.UpdateSubscription(ctx, updated); err != nil {
		return Subscription{}, s.storeErr(err)
	}
	return updated, nil
}

// insert stores a new row together with its first history entry.
func (s *Service) insert(ctx context.Context, tx Tx, sub Subscription, planName string, member catalog.Member, actor, note string) error {
	if err := tx.InsertSubscription(ctx, sub); err != nil {
		return s.storeErr(err)
	}
	entry := HistoryEntry{
		ID:             newID(),
		SubscriptionID: sub.ID,
		Snapshot:       snapshotSubscription(sub, planName),
		MemberSnapshot: snapshotMember(member),
		Note:           note,
		ChangedBy:      actor,
		CreatedAt:      sub.CreatedAt,
	}
	if err := tx.InsertHistory(ctx, entry); err != nil {
		return s.storeErr(err)
	}
	return nil
}
