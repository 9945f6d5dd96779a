package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/pkg/email"
	"github.com/dmitrymomot/gymcrm/pkg/logger"
	"github.com/dmitrymomot/gymcrm/pkg/queue"
	"github.com/dmitrymomot/gymcrm/pkg/whatsapp"
	"github.com/dmitrymomot/gymcrm/svc/catalog"
	"github.com/dmitrymomot/gymcrm/svc/membership"
)

// Notification kinds, used in logs and metrics.
const (
	KindEnrolled       = "enrolled"
	KindPlanChanged    = "plan_changed"
	KindRenewed        = "renewed"
	KindCancelled      = "cancelled"
	KindExpiryReminder = "expiry_reminder"
	KindExpired        = "expired"
)

// Delivery channels.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
	ChannelSkipped  = "skipped"
)

// Subscriptions loads the subscription a task refers to.
// *membership.Service satisfies it.
type Subscriptions interface {
	Get(ctx context.Context, id uuid.UUID) (membership.Subscription, error)
}

// Notifier turns queued lifecycle events into member messages.
type Notifier struct {
	cfg      Config
	subs     Subscriptions
	members  catalog.MemberDirectory
	plans    catalog.PlanSource
	whatsapp whatsapp.Sender
	email    email.Sender
	receipts *Receipts
	observer DeliveryObserver
	clock    clock.Clock
	log      *slog.Logger
}

// New panics when a required dependency is nil. Without WithWhatsApp and
// WithEmail every notification is skipped.
func New(cfg Config, subs Subscriptions, members catalog.MemberDirectory, plans catalog.PlanSource, opts ...Option) *Notifier {
	if subs == nil {
		panic("notify: Subscriptions is required")
	}
	if members == nil {
		panic("notify: MemberDirectory is required")
	}
	if plans == nil {
		panic("notify: PlanSource is required")
	}
	n := &Notifier{
		cfg:     cfg,
		subs:    subs,
		members: members,
		plans:   plans,
		clock:   clock.New(time.UTC),
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.log = n.log.With(logger.Component("notify"))
	return n
}

// Handlers returns one queue handler per lifecycle event payload.
func (n *Notifier) Handlers() []queue.Handler {
	return []queue.Handler{
		queue.NewTaskHandler(n.HandleEnrolled),
		queue.NewTaskHandler(n.HandlePlanChanged),
		queue.NewTaskHandler(n.HandleRenewed),
		queue.NewTaskHandler(n.HandleCancelled),
		queue.NewTaskHandler(n.HandleExpiryReminder),
	}
}

func (n *Notifier) HandleEnrolled(ctx context.Context, ev membership.SubscriptionEnrolled) error {
	tc, ok, err := n.load(ctx, KindEnrolled, ev.SubscriptionID, ev.MemberID)
	if !ok || err != nil {
		return err
	}
	att := n.receipt(ctx, tc, "Membership Receipt")
	msg := n.enrolledText(tc.member, tc.sub, tc.plan, att.url != "")
	return n.deliver(ctx, KindEnrolled, tc.member, msg, att)
}

func (n *Notifier) HandlePlanChanged(ctx context.Context, ev membership.PlanChanged) error {
	tc, ok, err := n.load(ctx, KindPlanChanged, ev.SubscriptionID, ev.MemberID)
	if !ok || err != nil {
		return err
	}
	att := n.receipt(ctx, tc, "Plan Change Receipt")
	msg := n.planChangedText(tc.member, ev, clock.Today(n.clock), att.url != "")
	return n.deliver(ctx, KindPlanChanged, tc.member, msg, att)
}

func (n *Notifier) HandleRenewed(ctx context.Context, ev membership.SubscriptionRenewed) error {
	tc, ok, err := n.load(ctx, KindRenewed, ev.SubscriptionID, ev.MemberID)
	if !ok || err != nil {
		return err
	}
	att := n.receipt(ctx, tc, "Renewal Receipt")
	msg := n.renewedText(tc.member, tc.sub, tc.plan, ev, att.url != "")
	return n.deliver(ctx, KindRenewed, tc.member, msg, att)
}

func (n *Notifier) HandleCancelled(ctx context.Context, ev membership.SubscriptionCancelled) error {
	member, ok, err := n.member(ctx, KindCancelled, ev.MemberID)
	if !ok || err != nil {
		return err
	}
	return n.deliver(ctx, KindCancelled, member, n.cancelledText(member, ev), attachment{})
}

// HandleExpiryReminder sends the "expires in N days" or "has expired"
// message. Advance reminders for subscriptions that are no longer active
// (renewed or cancelled since the reminder was queued) are dropped.
func (n *Notifier) HandleExpiryReminder(ctx context.Context, ev membership.ExpiryReminder) error {
	kind := KindExpiryReminder
	if ev.DaysUntilExpiry <= 0 {
		kind = KindExpired
	}

	if ev.DaysUntilExpiry > 0 {
		sub, err := n.subs.Get(ctx, ev.SubscriptionID)
		switch {
		case membership.IsNotFound(err):
			n.skip(ctx, kind, ev.MemberID, "subscription not found")
			return nil
		case err != nil:
			return errors.Join(ErrLoadSubscription, err)
		case sub.Status != membership.StatusActive:
			n.skip(ctx, kind, ev.MemberID, "subscription no longer active")
			return nil
		}
	}

	member, ok, err := n.member(ctx, kind, ev.MemberID)
	if !ok || err != nil {
		return err
	}
	return n.deliver(ctx, kind, member, n.reminderText(member, ev), attachment{})
}

// taskContext is the state a handler reloads before rendering.
type taskContext struct {
	sub    membership.Subscription
	member catalog.Member
	plan   catalog.Plan
}

// load reports ok=false with a nil error when the task refers to rows that
// no longer exist; retrying cannot help then.
func (n *Notifier) load(ctx context.Context, kind string, subID uuid.UUID, memberID int64) (taskContext, bool, error) {
	sub, err := n.subs.Get(ctx, subID)
	if membership.IsNotFound(err) {
		n.skip(ctx, kind, memberID, "subscription not found")
		return taskContext{}, false, nil
	}
	if err != nil {
		return taskContext{}, false, errors.Join(ErrLoadSubscription, err)
	}
	member, ok, err := n.member(ctx, kind, sub.MemberID)
	if !ok || err != nil {
		return taskContext{}, false, err
	}
	plan, err := n.plans.GetPlan(ctx, sub.PlanID)
	if errors.Is(err, catalog.ErrPlanNotFound) {
		n.skip(ctx, kind, memberID, "plan not found")
		return taskContext{}, false, nil
	}
	if err != nil {
		return taskContext{}, false, errors.Join(ErrLoadPlan, err)
	}
	return taskContext{sub: sub, member: member, plan: plan}, true, nil
}

func (n *Notifier) member(ctx context.Context, kind string, id int64) (catalog.Member, bool, error) {
	m, err := n.members.GetMember(ctx, id)
	if errors.Is(err, catalog.ErrMemberNotFound) {
		n.skip(ctx, kind, id, "member not found")
		return catalog.Member{}, false, nil
	}
	if err != nil {
		return catalog.Member{}, false, errors.Join(ErrLoadMember, err)
	}
	return m, true, nil
}

type attachment struct {
	url  string
	name string
	data []byte
}

// receipt renders and stores the receipt. Failures only downgrade the
// message text.
func (n *Notifier) receipt(ctx context.Context, tc taskContext, title string) attachment {
	if n.receipts == nil {
		return attachment{}
	}
	obj, data, err := n.receipts.Publish(ctx, Receipt{Title: title, Subscription: tc.sub, Member: tc.member, Plan: tc.plan})
	if err != nil {
		n.log.ErrorContext(ctx, "receipt generation failed",
			logger.SubscriptionID(tc.sub.ID),
			logger.MemberID(tc.member.ID),
			logger.Error(err),
		)
		return attachment{}
	}
	return attachment{url: obj.URL, name: "receipt.pdf", data: data}
}

// deliver sends over WhatsApp when the member has a valid phone number and
// falls back to email. Provider errors are returned for the worker to retry.
func (n *Notifier) deliver(ctx context.Context, kind string, m catalog.Member, msg text, att attachment) error {
	if m.PhoneNumber != "" && n.whatsapp != nil {
		sid, err := n.whatsapp.Send(ctx, whatsapp.Message{To: m.PhoneNumber, Body: msg.Body, MediaURL: att.url})
		switch {
		case err == nil:
			n.delivered(ctx, kind, ChannelWhatsApp, m.ID, slog.String("sid", sid))
			return nil
		case errors.Is(err, whatsapp.ErrInvalidPhone):
			n.log.WarnContext(ctx, "member phone number is not deliverable",
				logger.MemberID(m.ID),
				logger.Event(kind),
			)
		default:
			return errors.Join(ErrDeliver, err)
		}
	}

	if m.Email != "" && n.email != nil {
		em := email.Message{To: m.Email, Subject: msg.Subject, TextBody: msg.Body, Tag: kind}
		if len(att.data) > 0 {
			em.Attachments = []email.Attachment{{Name: att.name, ContentType: receiptContentType, Data: att.data}}
		}
		if err := n.email.Send(ctx, em); err != nil {
			return errors.Join(ErrDeliver, err)
		}
		n.delivered(ctx, kind, ChannelEmail, m.ID)
		return nil
	}

	n.skip(ctx, kind, m.ID, "no reachable contact")
	return nil
}

func (n *Notifier) delivered(ctx context.Context, kind, channel string, memberID int64, attrs ...slog.Attr) {
	if n.observer != nil {
		n.observer.ObserveNotification(kind, channel)
	}
	args := []any{logger.Event(kind), logger.Channel(channel), logger.MemberID(memberID)}
	for _, a := range attrs {
		args = append(args, a)
	}
	n.log.InfoContext(ctx, "notification delivered", args...)
}

func (n *Notifier) skip(ctx context.Context, kind string, memberID int64, reason string) {
	if n.observer != nil {
		n.observer.ObserveNotification(kind, ChannelSkipped)
	}
	n.log.WarnContext(ctx, "notification skipped",
		logger.Event(kind),
		logger.MemberID(memberID),
		slog.String("reason", reason),
	)
}
