package notify_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/pkg/email"
	"github.com/dmitrymomot/gymcrm/pkg/file"
	"github.com/dmitrymomot/gymcrm/pkg/logger"
	"github.com/dmitrymomot/gymcrm/pkg/queue"
	"github.com/dmitrymomot/gymcrm/pkg/whatsapp"
	"github.com/dmitrymomot/gymcrm/svc/catalog"
	"github.com/dmitrymomot/gymcrm/svc/membership"
	"github.com/dmitrymomot/gymcrm/svc/notify"
)

const (
	withPhone int64 = 1
	emailOnly int64 = 2
	noContact int64 = 3
	badPhone  int64 = 4
)

var (
	monthly = catalog.Plan{
		ID:           uuid.MustParse("11111111-1111-4111-8111-111111111111"),
		Name:         "Monthly",
		Type:         catalog.PlanTypeMembership,
		DurationDays: 30,
		Price:        150000,
		IsActive:     true,
	}
	quarterly = catalog.Plan{
		ID:           uuid.MustParse("22222222-2222-4222-8222-222222222222"),
		Name:         "Quarterly",
		Type:         catalog.PlanTypeMembership,
		DurationDays: 90,
		Price:        400000,
		IsActive:     true,
	}
)

type fakeWhatsApp struct {
	mu   sync.Mutex
	sent []whatsapp.Message
	err  error
}

func (f *fakeWhatsApp) Send(_ context.Context, msg whatsapp.Message) (string, error) {
	if _, err := whatsapp.NormalizeIndianPhone(msg.To); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "SM123", nil
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []email.Message
}

func (f *fakeEmail) Send(_ context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) ObserveNotification(kind, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+"/"+channel)
}

type failingStorage struct{ file.Storage }

func (failingStorage) Put(context.Context, string, []byte, string) (file.Object, error) {
	return file.Object{}, errors.New("disk full")
}

type env struct {
	svc     *membership.Service
	clock   *clock.Mock
	tasks   *queue.MemoryStorage
	storage file.Storage
	wa      *fakeWhatsApp
	mail    *fakeEmail
	obs     *recorder
	worker  *queue.Worker
}

func newEnv(t *testing.T, storage func(dir string) file.Storage) *env {
	t.Helper()

	clk := clock.NewMock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	cat := catalog.NewMemory().AddPlans(monthly, quarterly).
		PutMember(catalog.Member{ID: withPhone, FullName: "Asha Rao", PhoneNumber: "98765 43210", Email: "asha@example.com", IsActive: true}).
		PutMember(catalog.Member{ID: emailOnly, FullName: "Ravi Kumar", Email: "ravi@example.com", IsActive: true}).
		PutMember(catalog.Member{ID: noContact, FullName: "Meera Iyer", IsActive: true}).
		PutMember(catalog.Member{ID: badPhone, FullName: "Kabir Shah", PhoneNumber: "12345", Email: "kabir@example.com", IsActive: true})
	tasks := queue.NewMemoryStorage(clk)
	svc := membership.NewService(membership.NewMemoryStore(cat, tasks), cat, cat, membership.WithClock(clk))

	local, err := file.NewLocalStorage(t.TempDir(), "https://cdn.example.com/media/")
	require.NoError(t, err)
	var st file.Storage = local
	if storage != nil {
		st = storage(t.TempDir())
	}

	e := &env{
		svc:     svc,
		clock:   clk,
		tasks:   tasks,
		storage: st,
		wa:      &fakeWhatsApp{},
		mail:    &fakeEmail{},
		obs:     &recorder{},
	}
	cfg := notify.Config{GymName: "Club7 Gym", GymPhone: "+91 80000 00000"}
	n := notify.New(cfg, svc, cat, cat,
		notify.WithWhatsApp(e.wa),
		notify.WithEmail(e.mail),
		notify.WithReceipts(notify.NewReceipts(st, cfg, clk)),
		notify.WithObserver(e.obs),
		notify.WithClock(clk),
	)

	e.worker, err = queue.NewWorker(tasks, queue.WithWorkerClock(clk), queue.WithWorkerLogger(logger.Discard()))
	require.NoError(t, err)
	e.worker.RegisterHandlers(n.Handlers()...)
	return e
}

func (e *env) enroll(t *testing.T, member int64, status membership.Status) membership.Subscription {
	t.Helper()
	sub, err := e.svc.Enroll(context.Background(), membership.EnrollParams{MemberID: member, PlanID: monthly.ID, Status: status}, "staff:1")
	require.NoError(t, err)
	return sub
}

// drain runs the worker until no task is due.
func (e *env) drain(t *testing.T) {
	t.Helper()
	for {
		processed, err := e.worker.ProcessNext(context.Background())
		require.NoError(t, err)
		if !processed {
			return
		}
	}
}

func TestEnrolled_WhatsAppWithReceipt(t *testing.T) {
	t.Parallel()
	e := newEnv(t, nil)
	sub := e.enroll(t, withPhone, membership.StatusActive)

	e.drain(t)

	require.Len(t, e.wa.sent, 1)
	msg := e.wa.sent[0]
	assert.Equal(t, "98765 43210", msg.To)
	assert.Contains(t, msg.Body, "Welcome to Club7 Gym, Asha Rao!")
	assert.Contains(t, msg.Body, "• Amount Paid: ₹1,500.00")
	assert.Contains(t, msg.Body, "• Start Date: 01 January 2024")
	assert.Contains(t, msg.Body, "• End Date: 31 January 2024")
	assert.Contains(t, msg.Body, "• Validity: 1 month")
	assert.Contains(t, msg.Body, "is attached to this message")

	wantKey := notify.ReceiptKey(sub.ID, e.clock.Now())
	assert.Equal(t, "https://cdn.example.com/media/"+wantKey, msg.MediaURL)
	exists, err := e.storage.Exists(context.Background(), wantKey)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Empty(t, e.mail.sent)
	assert.Equal(t, []string{"enrolled/whatsapp"}, e.obs.events)
	for _, task := range e.tasks.Tasks() {
		assert.Equal(t, queue.TaskStatusCompleted, task.Status)
	}
}

func TestEnrolled_EmailFallbackCarriesAttachment(t *testing.T) {
	t.Parallel()
	e := newEnv(t, nil)
	e.enroll(t, emailOnly, membership.StatusPending)

	e.drain(t)

	assert.Empty(t, e.wa.sent)
	require.Len(t, e.mail.sent, 1)
	msg := e.mail.sent[0]
	assert.Equal(t, "ravi@example.com", msg.To)
	assert.Equal(t, "Welcome to Club7 Gym", msg.Subject)
	assert.Equal(t, notify.KindEnrolled, msg.Tag)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	assert.True(t, strings.HasPrefix(string(msg.Attachments[0].Data), "%PDF"))
	assert.Equal(t, []string{"enrolled/email"}, e.obs.events)
}

func TestEnrolled_InvalidPhoneFallsBackToEmail(t *testing.T) {
	t.Parallel()
	e := newEnv(t, nil)
	e.enroll(t, badPhone, membership.StatusActive)

	e.drain(t)

	assert.Empty(t, e.wa.sent)
	require.Len(t, e.mail.sent, 1)
	assert.Equal(t, "kabir@example.com", e.mail.sent[0].To)
}

func TestEnrolled_NoContactIsSkipped(t *testing.T) {
	t.Parallel()
	e := newEnv(t, nil)
	e.enroll(t, noContact, membership.StatusActive)

	e.drain(t)

	assert.Empty(t, e.wa.sent)
	assert.Empty(t, e.mail.sent)
	assert.Equal(t, []string{"enrolled/skipped"}, e.obs.events)
	assert.Empty(t, e.tasks.DeadLetters())
}

func TestEnrolled_ReceiptFailureDowngradesText(t *testing.T) {
	t.Parallel()
	e := newEnv(t, func(string) file.Storage { return failingStorage{} })
	e.enroll(t, withPhone, membership.StatusActive)

	e.drain(t)

	require.Len(t, e.wa.sent, 1)
	assert.Empty(t, e.wa.sent[0].MediaURL)
	assert.Contains(t, e.wa.sent[0].Body, "has been generated for your records")
}

func TestDelivery_ProviderErrorIsRetried(t *testing.T) {
	t.Parallel()
	e := newEnv(t, nil)
	e.wa.err = errors.New("twilio: 503")
	e.enroll(t, withPhone, membership.StatusActive)

	e.drain(t)

	tasks := e.tasks.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, queue.TaskStatusPending, tasks[0].Status)
	assert.Equal(t, int8(1), tasks[0].RetryCount)
	assert.True(t, tasks[0].ScheduledAt.After(e.clock.Now()))
	assert.Empty(t, e.obs.events)
}

func TestPlanChanged(t *testing.T) {
	t.Parallel()
	e := newEnv(t, nil)
	sub := e.enroll(t, withPhone, membership.StatusActive)
	e.drain(t)

	e.clock.AdvanceDays(2)
	_, err := e.svc.ChangePlan(context.Background(), sub.ID, quarterly.ID, "staff:1")
	require.NoError(t, err)
	e.drain(t)

	require.Len(t, e.wa.sent, 2)
	body := e.wa.sent[1].Body
	assert.Contains(t, body, "• From: Monthly")
	assert.Contains(t, body, "• To: Quarterly")
	assert.Contains(t, body, "• Effective Date: 03 January 2024")
	assert.NotEmpty(t, e.wa.sent[1].MediaURL)
	assert.Equal(t, []string{"enrolled/whatsapp", "plan_changed/whatsapp"}, e.obs.events)
}

func TestRenewed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t, nil)
	sub := e.enroll(t, withPhone, membership.StatusActive)
	e.drain(t)

	e.clock.AdvanceDays(31)
	_, err := e.svc.Renew(ctx, sub.ID, membership.RenewParams{}, "staff:1")
	require.NoError(t, err)
	e.drain(t)

	require.Len(t, e.wa.sent, 2)
	body := e.wa.sent[1].Body
	assert.Contains(t, body, "Your membership has been renewed.")
	assert.Contains(t, body, "• Plan: Monthly\n")
	assert.Contains(t, body, "• Extended By: 1 month")
	assert.NotEmpty(t, e.wa.sent[1].MediaURL)
}

func TestCancelled(t *testing.T) {
	t.Parallel()
	e := newEnv(t, nil)
	sub := e.enroll(t, withPhone, membership.StatusPending)
	e.drain(t)
	_, err := e.svc.Cancel(context.Background(), sub.ID, "staff:1")
	require.NoError(t, err)

	e.drain(t)

	require.Len(t, e.wa.sent, 2)
	assert.Contains(t, e.wa.sent[1].Body, "Your Monthly membership has been cancelled.")
	assert.Empty(t, e.wa.sent[1].MediaURL)
}

func TestExpiryReminders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t, nil)
	e.enroll(t, withPhone, membership.StatusActive)
	e.drain(t)

	e.clock.Set(time.Date(2024, 1, 28, 8, 0, 0, 0, time.UTC))
	n, err := e.svc.SendExpiryReminders(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	e.drain(t)

	require.Len(t, e.wa.sent, 2)
	assert.Contains(t, e.wa.sent[1].Body, "Your membership expires in 3 days!")
	assert.Contains(t, e.wa.sent[1].Body, "• Expires on: 31 January 2024")

	e.clock.Set(time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC))
	n, err = e.svc.Expire(ctx, membership.SystemActor)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	e.drain(t)

	require.Len(t, e.wa.sent, 3)
	assert.Contains(t, e.wa.sent[2].Body, "Your membership has expired!")
	assert.Equal(t, []string{"enrolled/whatsapp", "expiry_reminder/whatsapp", "expired/whatsapp"}, e.obs.events)
}

func TestExpiryReminder_StaleIsDropped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t, nil)
	sub := e.enroll(t, withPhone, membership.StatusActive)
	e.drain(t)

	e.clock.Set(time.Date(2024, 1, 30, 8, 0, 0, 0, time.UTC))
	_, err := e.svc.SendExpiryReminders(ctx)
	require.NoError(t, err)
	_, err = e.svc.Cancel(ctx, sub.ID, "staff:1")
	require.NoError(t, err)
	e.drain(t)

	var bodies []string
	for _, m := range e.wa.sent {
		bodies = append(bodies, m.Body)
	}
	require.Len(t, bodies, 2, "enrollment and cancellation only")
	assert.Contains(t, bodies[1], "has been cancelled")
	assert.Contains(t, e.obs.events, "expiry_reminder/skipped")
}
