package membership

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/svc/catalog"
)

const (
	defaultExpiringWindow = 7
	defaultNewMemberDays  = 30
	defaultListLimit      = 50
	maxListLimit          = 500
)

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, id)
	if err != nil {
		return Subscription{}, s.subscriptionErr(err)
	}
	return sub, nil
}

// List returns subscriptions matching f, newest start first.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Subscription, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, validation("Unknown status " + string(f.Status))
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	f.Limit = min(f.Limit, maxListLimit)
	f.Offset = max(f.Offset, 0)

	subs, err := s.store.ListSubscriptions(ctx, f)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return subs, nil
}

// GetHistory returns the audit trail of a subscription, newest first.
func (s *Service) GetHistory(ctx context.Context, id uuid.UUID) ([]HistoryEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	h, err := s.store.History(ctx, id)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return h, nil
}

// GetPlanChangeLogs returns plan changes of a subscription, newest first.
func (s *Service) GetPlanChangeLogs(ctx context.Context, id uuid.UUID) ([]PlanChange, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	c, err := s.store.PlanChanges(ctx, id)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return c, nil
}

// Stats counts subscriptions per status.
type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Pending   int `json:"pending"`
	Expired   int `json:"expired"`
	Cancelled int `json:"cancelled"`
	Completed int `json:"completed"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return Stats{}, s.storeErr(err)
	}
	st := Stats{
		Active:    counts[StatusActive],
		Pending:   counts[StatusPending],
		Expired:   counts[StatusExpired],
		Cancelled: counts[StatusCancelled],
		Completed: counts[StatusCompleted],
	}
	st.Total = st.Active + st.Pending + st.Expired + st.Cancelled + st.Completed
	return st, nil
}

// ExpiringSoon lists active subscriptions ending within windowDays of today,
// inclusive, soonest first. A non-positive window means 7 days.
func (s *Service) ExpiringSoon(ctx context.Context, windowDays int) ([]Subscription, error) {
	if windowDays <= 0 {
		windowDays = defaultExpiringWindow
	}
	today := s.Today()
	subs, err := s.store.ActiveEndingBetween(ctx, today, clock.AddDays(today, windowDays))
	if err != nil {
		return nil, s.storeErr(err)
	}
	return subs, nil
}

// MemberStatus is a member together with their current subscription.
type MemberStatus struct {
	Member                catalog.Member `json:"member"`
	Bucket                Bucket         `json:"bucket"`
	Current               *Subscription  `json:"current_subscription,omitempty"`
	DaysRemaining         *int           `json:"days_remaining,omitempty"`
	DaysExpired           *int           `json:"days_expired,omitempty"`
	HasActiveSubscription bool           `json:"has_active_subscription"`
}

func memberStatus(m catalog.Member, cur *Subscription, today time.Time) MemberStatus {
	ms := MemberStatus{Member: m, Bucket: BucketFor(cur, today), Current: cur}
	if cur == nil {
		return ms
	}
	ms.HasActiveSubscription = cur.Status == StatusActive
	if d := cur.DaysRemaining(today); d >= 0 {
		ms.DaysRemaining = &d
	} else {
		expired := -d
		ms.DaysExpired = &expired
	}
	return ms
}

// MemberSummary reports a member's bucket and current subscription.
func (s *Service) MemberSummary(ctx context.Context, memberID int64) (MemberStatus, error) {
	m, err := s.members.GetMember(ctx, memberID)
	if errors.Is(err, catalog.ErrMemberNotFound) {
		return MemberStatus{}, notFound(msgMemberNotFound, err)
	}
	if err != nil {
		return MemberStatus{}, err
	}
	return s.statusOf(ctx, m)
}

// LookupMember finds a member by one key and reports whether they hold an
// active subscription.
func (s *Service) LookupMember(ctx context.Context, l catalog.Lookup) (MemberStatus, error) {
	m, err := s.members.LookupMember(ctx, l)
	switch {
	case errors.Is(err, catalog.ErrInvalidLookup):
		return MemberStatus{}, validation("Provide exactly one of id, phone, email or biometric_id")
	case errors.Is(err, catalog.ErrMemberNotFound):
		return MemberStatus{}, notFound(msgMemberNotFound, err)
	case err != nil:
		return MemberStatus{}, err
	}
	return s.statusOf(ctx, m)
}

func (s *Service) statusOf(ctx context.Context, m catalog.Member) (MemberStatus, error) {
	subs, err := s.store.MemberSubscriptions(ctx, m.ID)
	if err != nil {
		return MemberStatus{}, s.storeErr(err)
	}
	return memberStatus(m, currentOf(subs), s.Today()), nil
}

// currentOf picks the active subscription, else the first (newest) one.
func currentOf(subs []Subscription) *Subscription {
	if len(subs) == 0 {
		return nil
	}
	for i := range subs {
		if subs[i].Status == StatusActive {
			return &subs[i]
		}
	}
	return &subs[0]
}

// MemberListing selects one of the member views.
type MemberListing string

const (
	ListingActive   MemberListing = "active"
	ListingInactive MemberListing = "inactive"
	ListingExpiring MemberListing = "expiring"
	ListingNew      MemberListing = "new"
)

// ListMembers returns members of one listing. days only applies to
// ListingNew and defaults to 30.
func (s *Service) ListMembers(ctx context.Context, listing MemberListing, days int) ([]MemberStatus, error) {
	var filter catalog.MemberFilter
	switch listing {
	case ListingActive, ListingInactive, ListingExpiring:
	case ListingNew:
		if days <= 0 {
			days = defaultNewMemberDays
		}
		since := clock.AddDays(s.Today(), -days)
		filter.JoinedSince = &since
	default:
		return nil, validation("Unknown listing " + string(listing))
	}

	statuses, err := s.memberStatuses(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]MemberStatus, 0, len(statuses))
	for _, ms := range statuses {
		if listing.includes(ms) {
			out = append(out, ms)
		}
	}
	return out, nil
}

func (l MemberListing) includes(ms MemberStatus) bool {
	switch l {
	case ListingActive:
		return ms.Member.IsActive && (ms.Bucket == BucketActive || ms.Bucket == BucketExpiringSoon)
	case ListingInactive:
		return !ms.Member.IsActive || !(ms.Bucket == BucketActive || ms.Bucket == BucketExpiringSoon)
	case ListingExpiring:
		return ms.Member.IsActive && ms.Bucket == BucketExpiringSoon
	default:
		return true
	}
}

// MemberBuckets counts members per bucket. Every bucket is present.
func (s *Service) MemberBuckets(ctx context.Context) (map[Bucket]int, error) {
	statuses, err := s.memberStatuses(ctx, catalog.MemberFilter{})
	if err != nil {
		return nil, err
	}
	counts := make(map[Bucket]int, len(Buckets))
	for _, b := range Buckets {
		counts[b] = 0
	}
	for _, ms := range statuses {
		counts[ms.Bucket]++
	}
	return counts, nil
}

func (s *Service) memberStatuses(ctx context.Context, f catalog.MemberFilter) ([]MemberStatus, error) {
	members, err := s.members.ListMembers(ctx, f)
	if err != nil {
		return nil, err
	}
	current, err := s.store.CurrentSubscriptions(ctx)
	if err != nil {
		return nil, s.storeErr(err)
	}

	today := s.Today()
	out := make([]MemberStatus, 0, len(members))
	for _, m := range members {
		var cur *Subscription
		if sub, ok := current[m.ID]; ok {
			cur = &sub
		}
		out = append(out, memberStatus(m, cur, today))
	}
	return out, nil
}
