package membership_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/pkg/queue"
	"github.com/dmitrymomot/gymcrm/svc/catalog"
	"github.com/dmitrymomot/gymcrm/svc/membership"
)

const actor = "staff:42"

var (
	monthly   = catalog.Plan{ID: uuid.MustParse("11111111-1111-4111-8111-111111111111"), Name: "Monthly", Type: catalog.PlanTypeMembership, DurationDays: 30, Price: 150000, IsActive: true}
	quarterly = catalog.Plan{ID: uuid.MustParse("22222222-2222-4222-8222-222222222222"), Name: "Quarterly", Type: catalog.PlanTypeMembership, DurationDays: 90, Price: 400000, IsActive: true}
	annual    = catalog.Plan{ID: uuid.MustParse("33333333-3333-4333-8333-333333333333"), Name: "Annual", Type: catalog.PlanTypeMembership, DurationDays: 365, Price: 1200000, IsActive: true}
)

// Members: 1 and 3 and 4 are active, 2 is blocked.
const (
	asha    int64 = 1
	ravi    int64 = 2
	meera   int64 = 3
	kabir   int64 = 4
	missing int64 = 99
)

type fixture struct {
	svc     *membership.Service
	store   *membership.MemoryStore
	catalog *catalog.Memory
	clock   *clock.Mock
	tasks   *queue.MemoryStorage
}

func newFixture(t *testing.T, opts ...membership.Option) *fixture {
	t.Helper()

	clk := clock.NewMock(time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC))
	cat := catalog.NewMemory().
		AddPlans(monthly, quarterly, annual).
		PutMember(catalog.Member{ID: asha, FullName: "Asha Rao", PhoneNumber: "9876543210", Email: "asha@example.com", BiometricID: "0001", JoinDate: clock.NewDate(2024, 1, 1), IsActive: true}).
		PutMember(catalog.Member{ID: ravi, FullName: "Ravi Kumar", PhoneNumber: "9000000002", BiometricID: "0002", JoinDate: clock.NewDate(2023, 6, 1), IsActive: false}).
		PutMember(catalog.Member{ID: meera, FullName: "Meera Iyer", PhoneNumber: "9000000003", BiometricID: "0003", JoinDate: clock.NewDate(2024, 1, 10), IsActive: true}).
		PutMember(catalog.Member{ID: kabir, FullName: "Kabir Shah", PhoneNumber: "9000000004", BiometricID: "0004", JoinDate: clock.NewDate(2023, 1, 1), IsActive: true})
	tasks := queue.NewMemoryStorage(clk)
	store := membership.NewMemoryStore(cat, tasks)

	opts = append([]membership.Option{membership.WithClock(clk)}, opts...)
	return &fixture{
		svc:     membership.NewService(store, cat, cat, opts...),
		store:   store,
		catalog: cat,
		clock:   clk,
		tasks:   tasks,
	}
}

func (f *fixture) enroll(t *testing.T, member int64, plan catalog.Plan, status membership.Status) membership.Subscription {
	t.Helper()
	sub, err := f.svc.Enroll(context.Background(), membership.EnrollParams{
		MemberID: member,
		PlanID:   plan.ID,
		Status:   status,
	}, actor)
	require.NoError(t, err)
	return sub
}

func (f *fixture) setDay(year int, month time.Month, day int) {
	f.clock.Set(time.Date(year, month, day, 18, 0, 0, 0, time.UTC))
}

func (f *fixture) history(t *testing.T, id uuid.UUID) []membership.HistoryEntry {
	t.Helper()
	h, err := f.svc.GetHistory(context.Background(), id)
	require.NoError(t, err)
	return h
}

func (f *fixture) planChanges(t *testing.T, id uuid.UUID) []membership.PlanChange {
	t.Helper()
	c, err := f.svc.GetPlanChangeLogs(context.Background(), id)
	require.NoError(t, err)
	return c
}

// payloads decodes every queued task named name into T.
func payloads[T any](t *testing.T, f *fixture, name string) []T {
	t.Helper()
	var out []T
	for _, task := range f.tasks.Tasks() {
		if task.TaskName != name {
			continue
		}
		var v T
		require.NoError(t, json.Unmarshal(task.Payload, &v))
		out = append(out, v)
	}
	return out
}
