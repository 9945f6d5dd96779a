package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/pkg/logger"
	"github.com/dmitrymomot/gymcrm/pkg/queue"
	"github.com/dmitrymomot/gymcrm/svc/catalog"
)

// History notes.
const (
	noteEnrolled           = "Initial enrollment"
	noteActivated          = "Subscription activated"
	noteCancelled          = "Subscription cancelled"
	noteCompletedByRenewal = "Subscription completed by renewal"
	noteRenewed            = "Plan renewed"
	noteExpired            = "Subscription expired"
	noteUpdated            = "Subscription updated"
	noteGraceChange        = "Plan changed during grace period"
)

// Service is the subscription lifecycle engine. Every mutating method runs
// in a single Store transaction that locks the member row first.
type Service struct {
	store        Store
	plans        catalog.PlanSource
	members      catalog.MemberDirectory
	clock        clock.Clock
	log          *slog.Logger
	observer     TransitionObserver
	queueName    string
	maxRetries   int8
	reminderDays []int
}

// NewService panics when a required dependency is nil.
func NewService(store Store, plans catalog.PlanSource, members catalog.MemberDirectory, opts ...Option) *Service {
	if store == nil {
		panic("membership: Store is required")
	}
	if plans == nil {
		panic("membership: PlanSource is required")
	}
	if members == nil {
		panic("membership: MemberDirectory is required")
	}

	s := &Service{
		store:        store,
		plans:        plans,
		members:      members,
		clock:        clock.New(time.UTC),
		log:          logger.Discard(),
		queueName:    queue.DefaultQueueName,
		maxRetries:   3,
		reminderDays: []int{7, 3, 1},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("membership"))
	return s
}

// Today is the service's current calendar date.
func (s *Service) Today() time.Time {
	return clock.Today(s.clock)
}

// EnrollParams describes a new subscription. StartDate defaults to today and
// Status to pending.
type EnrollParams struct {
	MemberID       int64
	PlanID         uuid.UUID
	StartDate      *time.Time
	Status         Status
	IsRenewal      bool
	SignedByMember bool
	SignatureFile  *string
}

// Enroll creates a subscription for an active member without an active
// subscription. EndDate is StartDate plus the plan duration.
func (s *Service) Enroll(ctx context.Context, p EnrollParams, actor string) (Subscription, error) {
	status := p.Status
	if status == "" {
		status = StatusPending
	}
	if status != StatusPending && status != StatusActive {
		return Subscription{}, validation(msgInvalidStatus)
	}

	var sub Subscription
	err := s.store.InTx(ctx, func(tx Tx) error {
		member, err := s.lockMember(ctx, tx, p.MemberID)
		if err != nil {
			return err
		}
		if !member.IsActive {
			return validation(msgMemberInactive)
		}
		plan, err := s.plan(ctx, p.PlanID)
		if err != nil {
			return err
		}
		active, err := tx.HasActive(ctx, member.ID, uuid.Nil)
		if err != nil {
			return s.storeErr(err)
		}
		if active {
			return conflict(msgActiveExists, nil)
		}

		start := s.Today()
		if p.StartDate != nil {
			start = clock.Date(*p.StartDate)
		}
		now := s.clock.Now()
		sub = Subscription{
			ID:             newID(),
			MemberID:       member.ID,
			PlanID:         plan.ID,
			StartDate:      start,
			EndDate:        clock.AddDays(start, plan.DurationDays),
			Status:         status,
			IsRenewal:      p.IsRenewal,
			SignedByMember: p.SignedByMember,
			SignatureFile:  p.SignatureFile,
			MemberSnapshot: snapshotMember(member),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.insert(ctx, tx, sub, plan.Name, member, actor, noteEnrolled); err != nil {
			return err
		}

		s.publish(ctx, tx, SubscriptionEnrolled{SubscriptionID: sub.ID, MemberID: sub.MemberID})
		return nil
	})
	if err != nil {
		return Subscription{}, err
	}

	s.committed(ctx, "enroll", sub, actor)
	return sub, nil
}

// Activate moves a pending subscription to active.
func (s *Service) Activate(ctx context.Context, id uuid.UUID, actor string) (Subscription, error) {
	var out Subscription
	err := s.store.InTx(ctx, func(tx Tx) error {
		sub, member, err := s.lockSubscription(ctx, tx, id)
		if err != nil {
			return err
		}
		to, err := next(ctx, sub.Status, EventActivate, nil, msgOnlyPending)
		if err != nil {
			return err
		}
		active, err := tx.HasActive(ctx, sub.MemberID, sub.ID)
		if err != nil {
			return s.storeErr(err)
		}
		if active {
			return conflict(msgActiveExists, nil)
		}

		updated := sub
		updated.Status = to
		out, err = s.save(ctx, tx, sub, updated, member, actor, saveOpts{note: noteActivated})
		return err
	})
	if err != nil {
		return Subscription{}, err
	}

	s.committed(ctx, string(EventActivate), out, actor)
	return out, nil
}

// ChangePlan reassigns an active subscription to another plan within the
// grace period. Dates are kept.
func (s *Service) ChangePlan(ctx context.Context, id, newPlanID uuid.UUID, actor string) (Subscription, error) {
	var out Subscription
	err := s.store.InTx(ctx, func(tx Tx) error {
		sub, member, err := s.lockSubscription(ctx, tx, id)
		if err != nil {
			return err
		}
		oldPlan, err := s.plan(ctx, sub.PlanID)
		if err != nil {
			return err
		}
		in := graceInput{sub: sub, durationDays: oldPlan.DurationDays, today: s.Today()}
		if _, err := next(ctx, sub.Status, EventChangePlan, in, msgGraceExpired); err != nil {
			return err
		}
		newPlan, err := s.plan(ctx, newPlanID)
		if err != nil {
			return err
		}
		if newPlan.ID == sub.PlanID {
			return validation(msgSamePlan)
		}

		now := s.clock.Now()
		if err := tx.InsertPlanChange(ctx, newPlanChange(sub.ID, sub.PlanID, newPlan.ID, actor, now)); err != nil {
			return s.storeErr(err)
		}
		updated := sub
		updated.PlanID = newPlan.ID
		out, err = s.save(ctx, tx, sub, updated, member, actor, saveOpts{
			note:             fmt.Sprintf("Plan change from %s to %s", oldPlan.Name, newPlan.Name),
			planChangeLogged: true,
		})
		if err != nil {
			return err
		}

		s.publish(ctx, tx, PlanChanged{
			SubscriptionID: out.ID,
			MemberID:       out.MemberID,
			OldPlanID:      oldPlan.ID,
			NewPlanID:      newPlan.ID,
			OldPlanName:    oldPlan.Name,
			NewPlanName:    newPlan.Name,
		})
		return nil
	})
	if err != nil {
		return Subscription{}, err
	}

	s.committed(ctx, string(EventChangePlan), out, actor)
	return out, nil
}

// Cancel ends a pending or active subscription.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor string) (Subscription, error) {
	var out Subscription
	err := s.store.InTx(ctx, func(tx Tx) error {
		sub, member, err := s.lockSubscription(ctx, tx, id)
		if err != nil {
			return err
		}
		to, err := next(ctx, sub.Status, EventCancel, nil, msgCannotCancel)
		if err != nil {
			return err
		}
		plan, err := s.plan(ctx, sub.PlanID)
		if err != nil {
			return err
		}

		updated := sub
		updated.Status = to
		out, err = s.save(ctx, tx, sub, updated, member, actor, saveOpts{note: noteCancelled})
		if err != nil {
			return err
		}

		s.publish(ctx, tx, SubscriptionCancelled{SubscriptionID: out.ID, MemberID: out.MemberID, PlanName: plan.Name})
		return nil
	})
	if err != nil {
		return Subscription{}, err
	}

	s.committed(ctx, string(EventCancel), out, actor)
	return out, nil
}

func (s *Service) lockMember(ctx context.Context, tx Tx, memberID int64) (catalog.Member, error) {
	member, err := tx.LockMember(ctx, memberID)
	if errors.Is(err, catalog.ErrMemberNotFound) {
		return catalog.Member{}, notFound(msgMemberNotFound, err)
	}
	if err != nil {
		return catalog.Member{}, s.storeErr(err)
	}
	return member, nil
}

// lockSubscription locks the owning member, then re-reads the subscription
// so the state checked is the state written.
func (s *Service) lockSubscription(ctx context.Context, tx Tx, id uuid.UUID) (Subscription, catalog.Member, error) {
	sub, err := tx.GetSubscription(ctx, id)
	if err != nil {
		return Subscription{}, catalog.Member{}, s.subscriptionErr(err)
	}
	member, err := s.lockMember(ctx, tx, sub.MemberID)
	if err != nil {
		return Subscription{}, catalog.Member{}, err
	}
	sub, err = tx.LockSubscription(ctx, id)
	if err != nil {
		return Subscription{}, catalog.Member{}, s.subscriptionErr(err)
	}
	return sub, member, nil
}

func (s *Service) plan(ctx context.Context, id uuid.UUID) (catalog.Plan, error) {
	p, err := s.plans.GetPlan(ctx, id)
	if errors.Is(err, catalog.ErrPlanNotFound) {
		return catalog.Plan{}, notFound(msgPlanNotFound, err)
	}
	if err != nil {
		return catalog.Plan{}, fmt.Errorf("load plan %s: %w", id, err)
	}
	return p, nil
}

func (s *Service) subscriptionErr(err error) error {
	if errors.Is(err, ErrSubscriptionNotFound) {
		return notFound(msgSubscriptionNotFound, err)
	}
	return s.storeErr(err)
}

func (s *Service) storeErr(err error) error {
	var e *Error
	switch {
	case errors.As(err, &e):
		return err
	case errors.Is(err, ErrActiveSubscriptionExists):
		return conflict(msgActiveExists, err)
	default:
		return errors.Join(ErrStore, err)
	}
}

func (s *Service) committed(ctx context.Context, event string, sub Subscription, actor string) {
	if s.observer != nil {
		s.observer.ObserveTransition(event)
	}
	s.log.InfoContext(ctx, "subscription "+event,
		logger.Event(event),
		logger.SubscriptionID(sub.ID),
		logger.MemberID(sub.MemberID),
		logger.Status(string(sub.Status)),
		logger.Actor(actor),
	)
}

func newPlanChange(subID, oldPlan, newPlan uuid.UUID, actor string, at time.Time) PlanChange {
	return PlanChange{
		ID:             newID(),
		SubscriptionID: subID,
		OldPlanID:      &oldPlan,
		NewPlanID:      &newPlan,
		ChangedBy:      actor,
		ChangedAt:      at,
	}
}
