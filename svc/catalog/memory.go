package catalog

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process PlanSource, PlanWriter and MemberDirectory.
// Values are copied on the way in and out.
type Memory struct {
	mu      sync.RWMutex
	plans   map[uuid.UUID]Plan
	members map[int64]Member
}

func NewMemory() *Memory {
	return &Memory{
		plans:   make(map[uuid.UUID]Plan),
		members: make(map[int64]Member),
	}
}

// AddPlans stores plans, replacing any with the same id. Panics on an
// invalid plan.
func (m *Memory) AddPlans(plans ...Plan) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range plans {
		if err := p.Validate(); err != nil {
			panic(err)
		}
		m.plans[p.ID] = clonePlan(p)
	}
	return m
}

// PutMember stores or replaces a member.
func (m *Memory) PutMember(member Member) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[member.ID] = member
	return m
}

func (m *Memory) GetPlan(_ context.Context, id uuid.UUID) (Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return clonePlan(p), nil
}

func (m *Memory) ListPlans(_ context.Context, activeOnly bool) ([]Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Plan, 0, len(m.plans))
	for _, p := range m.plans {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, clonePlan(p))
	}
	sortPlans(out)
	return out, nil
}

func (m *Memory) UpsertPlan(_ context.Context, p Plan) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.plans[p.ID]; ok {
		p.CreatedAt = old.CreatedAt
	}
	m.plans[p.ID] = clonePlan(p)
	return nil
}

func (m *Memory) GetMember(_ context.Context, id int64) (Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	member, ok := m.members[id]
	if !ok {
		return Member{}, ErrMemberNotFound
	}
	return member, nil
}

func (m *Memory) LookupMember(ctx context.Context, l Lookup) (Member, error) {
	if !l.valid() {
		return Member{}, ErrInvalidLookup
	}
	if l.ID != 0 {
		return m.GetMember(ctx, l.ID)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, member := range m.members {
		switch {
		case l.Phone != "" && member.PhoneNumber == l.Phone:
			return member, nil
		case l.Email != "" && strings.EqualFold(member.Email, l.Email):
			return member, nil
		case l.BiometricID != "" && member.BiometricID == l.BiometricID:
			return member, nil
		}
	}
	return Member{}, ErrMemberNotFound
}

func (m *Memory) ListMembers(_ context.Context, f MemberFilter) ([]Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Member, 0, len(m.members))
	for _, member := range m.members {
		if f.JoinedSince != nil && member.JoinDate.Before(*f.JoinedSince) {
			continue
		}
		out = append(out, member)
	}
	slices.SortFunc(out, func(a, b Member) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func sortPlans(plans []Plan) {
	slices.SortFunc(plans, func(a, b Plan) int {
		return cmp.Or(cmp.Compare(a.DurationDays, b.DurationDays), strings.Compare(a.Name, b.Name))
	})
}
