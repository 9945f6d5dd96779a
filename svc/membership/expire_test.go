package membership_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/svc/membership"
)

func TestExpire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	sub := f.enroll(t, asha, monthly, membership.StatusActive)
	f.enroll(t, meera, monthly, membership.StatusPending)
	f.enroll(t, kabir, annual, membership.StatusActive)

	f.setDay(2024, 1, 31)
	n, err := f.svc.Expire(ctx, "system")
	require.NoError(t, err)
	assert.Zero(t, n, "a subscription ending today is still active")

	f.setDay(2024, 2, 1)
	n, err = f.svc.Expire(ctx, "system")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, membership.StatusExpired, got.Status)

	h := f.history(t, sub.ID)
	require.Len(t, h, 2)
	assert.Equal(t, "Subscription expired", h[0].Note)
	assert.Equal(t, "system", h[0].ChangedBy)

	reminders := payloads[membership.ExpiryReminder](t, f, "membership.ExpiryReminder")
	require.Len(t, reminders, 1)
	assert.Equal(t, sub.ID, reminders[0].SubscriptionID)
	assert.Equal(t, -1, reminders[0].DaysUntilExpiry)
	assert.Equal(t, "Monthly", reminders[0].PlanName)

	n, err = f.svc.Expire(ctx, "system")
	require.NoError(t, err)
	assert.Zero(t, n, "sweep is idempotent")
}

func TestExpireSubscription_NothingToDo(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	sub := f.enroll(t, asha, monthly, membership.StatusActive)

	changed, err := f.svc.ExpireSubscription(context.Background(), sub.ID, "system")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, f.history(t, sub.ID), 1)
}

func TestSendExpiryReminders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	active := f.enroll(t, asha, monthly, membership.StatusActive)
	f.enroll(t, meera, monthly, membership.StatusPending)
	f.enroll(t, kabir, annual, membership.StatusActive)

	f.setDay(2024, 1, 24)
	n, err := f.svc.SendExpiryReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	reminders := payloads[membership.ExpiryReminder](t, f, "membership.ExpiryReminder")
	require.Len(t, reminders, 1)
	assert.Equal(t, active.ID, reminders[0].SubscriptionID)
	assert.Equal(t, 7, reminders[0].DaysUntilExpiry)
	assert.Equal(t, clock.NewDate(2024, 1, 31), reminders[0].EndDate)

	f.setDay(2024, 1, 25)
	n, err = f.svc.SendExpiryReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSendExpiryReminders_CustomDays(t *testing.T) {
	t.Parallel()
	f := newFixture(t, membership.WithReminderDays(2))
	f.enroll(t, asha, monthly, membership.StatusActive)

	f.setDay(2024, 1, 29)
	n, err := f.svc.SendExpiryReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
