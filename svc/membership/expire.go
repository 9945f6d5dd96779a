package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/pkg/logger"
)

// Expire marks every active subscription whose end date is before today as
// expired and returns how many were changed. Each subscription is expired
// in its own transaction; failures are collected and do not stop the sweep.
func (s *Service) Expire(ctx context.Context, actor string) (int, error) {
	yesterday := clock.AddDays(s.Today(), -1)
	due, err := s.store.ActiveEndingBetween(ctx, time.Time{}, yesterday)
	if err != nil {
		return 0, s.storeErr(err)
	}

	var (
		expired int
		errs    []error
	)
	for _, sub := range due {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		changed, err := s.ExpireSubscription(ctx, sub.ID, actor)
		if err != nil {
			s.log.ErrorContext(ctx, "failed to expire subscription",
				logger.SubscriptionID(sub.ID),
				logger.Error(err),
			)
			errs = append(errs, fmt.Errorf("subscription %s: %w", sub.ID, err))
			continue
		}
		if changed {
			expired++
		}
	}

	s.log.InfoContext(ctx, "expiry sweep finished",
		logger.Event("subscription.expire_sweep"),
		logger.Count(expired),
	)
	return expired, errors.Join(errs...)
}

// ExpireSubscription expires one subscription when it is still active and
// past its end date. It reports false when there was nothing to do.
func (s *Service) ExpireSubscription(ctx context.Context, id uuid.UUID, actor string) (bool, error) {
	var (
		out     Subscription
		changed bool
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		sub, member, err := s.lockSubscription(ctx, tx, id)
		if err != nil {
			return err
		}
		today := s.Today()
		if sub.Status != StatusActive || sub.DaysRemaining(today) >= 0 {
			return nil
		}
		to, err := next(ctx, sub.Status, EventExpire, nil, "Only active subscriptions can expire")
		if err != nil {
			return err
		}
		plan, err := s.plan(ctx, sub.PlanID)
		if err != nil {
			return err
		}

		updated := sub
		updated.Status = to
		if out, err = s.save(ctx, tx, sub, updated, member, actor, saveOpts{note: noteExpired}); err != nil {
			return err
		}
		changed = true

		s.publish(ctx, tx, ExpiryReminder{
			SubscriptionID:  out.ID,
			MemberID:        out.MemberID,
			PlanName:        plan.Name,
			EndDate:         out.EndDate,
			DaysUntilExpiry: out.DaysRemaining(today),
		})
		return nil
	})
	if err != nil {
		return false, err
	}
	if changed {
		s.committed(ctx, string(EventExpire), out, actor)
	}
	return changed, nil
}

// SendExpiryReminders queues a reminder for every active subscription
// ending exactly N days from today, for each configured N.
func (s *Service) SendExpiryReminders(ctx context.Context) (int, error) {
	today := s.Today()
	queued := 0
	err := s.store.InTx(ctx, func(tx Tx) error {
		for _, days := range s.reminderDays {
			day := clock.AddDays(today, days)
			subs, err := tx.ActiveEndingBetween(ctx, day, day)
			if err != nil {
				return s.storeErr(err)
			}
			for _, sub := range subs {
				plan, err := s.plan(ctx, sub.PlanID)
				if err != nil {
					return err
				}
				s.publish(ctx, tx, ExpiryReminder{
					SubscriptionID:  sub.ID,
					MemberID:        sub.MemberID,
					PlanName:        plan.Name,
					EndDate:         sub.EndDate,
					DaysUntilExpiry: days,
				})
				queued++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.InfoContext(ctx, "expiry reminders queued",
		logger.Event("subscription.expiry_reminders"),
		logger.Count(queued),
	)
	return queued, nil
}
