package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymcrm/internal/api"
	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/pkg/jwt"
	"github.com/dmitrymomot/gymcrm/pkg/queue"
	"github.com/dmitrymomot/gymcrm/pkg/ratelimiter"
	"github.com/dmitrymomot/gymcrm/svc/catalog"
	"github.com/dmitrymomot/gymcrm/svc/membership"
)

var (
	monthly   = catalog.Plan{ID: uuid.MustParse("11111111-1111-4111-8111-111111111111"), Name: "Monthly", Type: catalog.PlanTypeMembership, DurationDays: 30, Price: 150000, IsActive: true}
	quarterly = catalog.Plan{ID: uuid.MustParse("22222222-2222-4222-8222-222222222222"), Name: "Quarterly", Type: catalog.PlanTypeMembership, DurationDays: 90, Price: 400000, IsActive: true}
	retired   = catalog.Plan{ID: uuid.MustParse("44444444-4444-4444-8444-444444444444"), Name: "Festive", Type: catalog.PlanTypeMembership, DurationDays: 45, Price: 100000, IsActive: false}
)

type env struct {
	handler http.Handler
	clock   *clock.Mock
	token   string
	svc     *membership.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()

	clk := clock.NewMock(time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC))
	cat := catalog.NewMemory().
		AddPlans(monthly, quarterly, retired).
		PutMember(catalog.Member{ID: 1, FullName: "Asha Rao", PhoneNumber: "9876543210", Email: "asha@example.com", BiometricID: "0001", JoinDate: clock.NewDate(2023, 12, 20), IsActive: true}).
		PutMember(catalog.Member{ID: 2, FullName: "Ravi Kumar", PhoneNumber: "9000000002", JoinDate: clock.NewDate(2023, 6, 1), IsActive: true})
	store := membership.NewMemoryStore(cat, queue.NewMemoryStorage(clk))
	svc := membership.NewService(store, cat, cat, membership.WithClock(clk))

	tokens, err := jwt.NewFromString("test-secret", jwt.WithIssuer("gymcrm"))
	require.NoError(t, err)
	token, err := tokens.Generate(jwt.StaffClaims{
		Name:             "Priya",
		RegisteredClaims: gojwt.RegisteredClaims{Subject: "priya"},
	})
	require.NoError(t, err)

	return &env{
		handler: api.New(api.Config{CORSOrigins: []string{"*"}, BodyLimit: 1 << 20}, svc, cat, tokens),
		clock:   clk,
		token:   token,
		svc:     svc,
	}
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Meta  *api.ListMeta    `json:"meta"`
	Error *api.ErrorDetail `json:"error"`
}

func (e *env) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer "+e.token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var out envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (e *env) enroll(t *testing.T, body string) membership.Subscription {
	t.Helper()
	code, res := e.do(t, http.MethodPost, "/api/v1/subscriptions", body)
	require.Equal(t, http.StatusCreated, code, res.Error)
	return decode[membership.Subscription](t, res.Data)
}

func TestHealthIsPublic(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var out envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotNil(t, out.Error)
	assert.Equal(t, "unauthorized", out.Error.Code)
	assert.NotEmpty(t, out.Error.RequestID)
}

func TestListPlans(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	code, res := e.do(t, http.MethodGet, "/api/v1/plans", "")
	require.Equal(t, http.StatusOK, code)
	plans := decode[[]catalog.Plan](t, res.Data)
	require.Len(t, plans, 2)
	assert.Equal(t, "Monthly", plans[0].Name)
	assert.Equal(t, 2, res.Meta.Count)

	code, res = e.do(t, http.MethodGet, "/api/v1/plans?all=true", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]catalog.Plan](t, res.Data), 3)

	code, res = e.do(t, http.MethodGet, "/api/v1/plans?all=maybe", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, res.Error.Details, "all")
}

func TestEnrollAndLifecycle(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	sub := e.enroll(t, `{"member_id":1,"plan_id":"`+monthly.ID.String()+`"}`)
	assert.Equal(t, membership.StatusPending, sub.Status)
	assert.Equal(t, clock.NewDate(2024, 1, 1), sub.StartDate)
	assert.Equal(t, clock.NewDate(2024, 1, 31), sub.EndDate)

	base := "/api/v1/subscriptions/" + sub.ID.String()

	code, res := e.do(t, http.MethodPost, base+"/activate", "")
	require.Equal(t, http.StatusOK, code, res.Error)
	assert.Equal(t, membership.StatusActive, decode[membership.Subscription](t, res.Data).Status)

	code, res = e.do(t, http.MethodPost, base+"/change-plan", `{"plan_id":"`+quarterly.ID.String()+`"}`)
	require.Equal(t, http.StatusOK, code, res.Error)
	assert.Equal(t, quarterly.ID, decode[membership.Subscription](t, res.Data).PlanID)

	code, res = e.do(t, http.MethodGet, base+"/plan-changes", "")
	require.Equal(t, http.StatusOK, code)
	changes := decode[[]membership.PlanChange](t, res.Data)
	require.Len(t, changes, 1)
	assert.Equal(t, "staff:priya", changes[0].ChangedBy)

	code, res = e.do(t, http.MethodGet, base+"/history", "")
	require.Equal(t, http.StatusOK, code)
	history := decode[[]membership.HistoryEntry](t, res.Data)
	require.NotEmpty(t, history)
	assert.Equal(t, "staff:priya", history[0].ChangedBy)

	code, res = e.do(t, http.MethodPost, base+"/cancel", "")
	require.Equal(t, http.StatusOK, code, res.Error)
	assert.Equal(t, membership.StatusCancelled, decode[membership.Subscription](t, res.Data).Status)

	code, res = e.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, membership.StatusCancelled, decode[membership.Subscription](t, res.Data).Status)
}

func TestEnrollValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	tests := []struct {
		name  string
		body  string
		code  int
		err   string
		field string
	}{
		{"missing plan", `{"member_id":1}`, http.StatusUnprocessableEntity, "validation_error", "plan_id"},
		{"bad uuid", `{"member_id":1,"plan_id":"nope"}`, http.StatusUnprocessableEntity, "validation_error", "plan_id"},
		{"bad date", `{"member_id":1,"plan_id":"` + monthly.ID.String() + `","start_date":"01/02/2024"}`, http.StatusUnprocessableEntity, "validation_error", "start_date"},
		{"bad status", `{"member_id":1,"plan_id":"` + monthly.ID.String() + `","status":"expired"}`, http.StatusUnprocessableEntity, "validation_error", "status"},
		{"unknown field", `{"member_id":1,"plan_id":"` + monthly.ID.String() + `","price":1}`, http.StatusBadRequest, "bad_request", ""},
		{"malformed", `{"member_id":`, http.StatusBadRequest, "bad_request", ""},
		{"unknown member", `{"member_id":77,"plan_id":"` + monthly.ID.String() + `"}`, http.StatusNotFound, "not_found", ""},
		{"unknown plan", `{"member_id":1,"plan_id":"` + uuid.NewString() + `"}`, http.StatusNotFound, "not_found", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, res := e.do(t, http.MethodPost, "/api/v1/subscriptions", tt.body)
			assert.Equal(t, tt.code, code)
			require.NotNil(t, res.Error)
			assert.Equal(t, tt.err, res.Error.Code)
			if tt.field != "" {
				assert.Contains(t, res.Error.Details, tt.field)
			}
		})
	}
}

func TestEnrollRejectsNonJSON(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", strings.NewReader("member_id=1"))
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestLifecycleErrorsMapToStatus(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	active := e.enroll(t, `{"member_id":1,"plan_id":"`+monthly.ID.String()+`","status":"active"}`)

	code, res := e.do(t, http.MethodPost, "/api/v1/subscriptions", `{"member_id":1,"plan_id":"`+monthly.ID.String()+`","status":"active"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", res.Error.Code)

	pending := e.enroll(t, `{"member_id":2,"plan_id":"`+monthly.ID.String()+`"}`)
	code, res = e.do(t, http.MethodPost, "/api/v1/subscriptions/"+pending.ID.String()+"/change-plan", `{"plan_id":"`+quarterly.ID.String()+`"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "invalid_state", res.Error.Code)

	code, res = e.do(t, http.MethodPost, "/api/v1/subscriptions/"+active.ID.String()+"/change-plan", `{"plan_id":"`+monthly.ID.String()+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "validation_error", res.Error.Code)

	code, res = e.do(t, http.MethodGet, "/api/v1/subscriptions/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", res.Error.Code)

	code, res = e.do(t, http.MethodGet, "/api/v1/subscriptions/not-a-uuid", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, res.Error.Details, "id")
}

func TestRenew(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	sub := e.enroll(t, `{"member_id":1,"plan_id":"`+monthly.ID.String()+`","status":"active"}`)
	e.clock.Set(time.Date(2024, 1, 28, 10, 0, 0, 0, time.UTC))

	code, res := e.do(t, http.MethodPost, "/api/v1/subscriptions/"+sub.ID.String()+"/renew", "")
	require.Equal(t, http.StatusCreated, code, res.Error)
	result := decode[membership.RenewResult](t, res.Data)
	assert.Equal(t, membership.StatusCompleted, result.Old.Status)
	assert.Equal(t, membership.StatusActive, result.New.Status)
	assert.True(t, result.New.IsRenewal)
	assert.Equal(t, clock.NewDate(2024, 1, 28), result.New.StartDate)
	assert.False(t, result.Info.PlanChanged)

	code, res = e.do(t, http.MethodPost, "/api/v1/subscriptions/"+result.New.ID.String()+"/renew",
		`{"plan_id":"`+quarterly.ID.String()+`","start_date":"2024-01-29"}`)
	require.Equal(t, http.StatusCreated, code, res.Error)
	result = decode[membership.RenewResult](t, res.Data)
	assert.True(t, result.Info.PlanChanged)
	assert.Equal(t, 90, result.Info.DaysExtended)
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	sub := e.enroll(t, `{"member_id":1,"plan_id":"`+monthly.ID.String()+`","status":"active"}`)
	path := "/api/v1/subscriptions/" + sub.ID.String()

	code, res := e.do(t, http.MethodPatch, path, `{"end_date":"2024-02-15","signed_by_member":true}`)
	require.Equal(t, http.StatusOK, code, res.Error)
	updated := decode[membership.Subscription](t, res.Data)
	assert.Equal(t, clock.NewDate(2024, 2, 15), updated.EndDate)
	assert.True(t, updated.SignedByMember)

	code, res = e.do(t, http.MethodPatch, path, `{"end_date":"2023-12-01"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "validation_error", res.Error.Code)
}

func TestMembers(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.enroll(t, `{"member_id":1,"plan_id":"`+monthly.ID.String()+`","status":"active"}`)

	code, res := e.do(t, http.MethodGet, "/api/v1/members/lookup?phone=9876543210", "")
	require.Equal(t, http.StatusOK, code, res.Error)
	status := decode[membership.MemberStatus](t, res.Data)
	assert.Equal(t, int64(1), status.Member.ID)
	assert.True(t, status.HasActiveSubscription)

	code, res = e.do(t, http.MethodGet, "/api/v1/members/lookup", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, res = e.do(t, http.MethodGet, "/api/v1/members/2/membership", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, membership.BucketNoMembership, decode[membership.MemberStatus](t, res.Data).Bucket)

	code, _ = e.do(t, http.MethodGet, "/api/v1/members/99/membership", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, res = e.do(t, http.MethodGet, "/api/v1/members?listing=active", "")
	require.Equal(t, http.StatusOK, code)
	active := decode[[]membership.MemberStatus](t, res.Data)
	require.Len(t, active, 1)
	assert.Equal(t, int64(1), active[0].Member.ID)

	code, res = e.do(t, http.MethodGet, "/api/v1/members?listing=inactive", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]membership.MemberStatus](t, res.Data), 1)

	code, res = e.do(t, http.MethodGet, "/api/v1/members?listing=new&days=20", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]membership.MemberStatus](t, res.Data), 1)

	code, res = e.do(t, http.MethodGet, "/api/v1/members?listing=vip", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "validation_error", res.Error.Code)
}

func TestListingAndStats(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	e.enroll(t, `{"member_id":1,"plan_id":"`+monthly.ID.String()+`","status":"active"}`)
	e.enroll(t, `{"member_id":2,"plan_id":"`+quarterly.ID.String()+`"}`)

	code, res := e.do(t, http.MethodGet, "/api/v1/subscriptions?status=active", "")
	require.Equal(t, http.StatusOK, code)
	subs := decode[[]membership.Subscription](t, res.Data)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(1), subs[0].MemberID)

	code, res = e.do(t, http.MethodGet, "/api/v1/subscriptions?q=ravi", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]membership.Subscription](t, res.Data), 1)

	code, res = e.do(t, http.MethodGet, "/api/v1/subscriptions?status=frozen", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, res.Error.Details, "status")

	code, res = e.do(t, http.MethodGet, "/api/v1/subscriptions?limit=abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, res.Error.Details, "limit")

	code, res = e.do(t, http.MethodGet, "/api/v1/subscriptions/stats", "")
	require.Equal(t, http.StatusOK, code)
	var stats struct {
		Total   int                       `json:"total"`
		Active  int                       `json:"active"`
		Pending int                       `json:"pending"`
		Members map[membership.Bucket]int `json:"members"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Members[membership.BucketActive])
	assert.Equal(t, 1, stats.Members[membership.BucketPending])

	e.clock.Set(time.Date(2024, 1, 27, 8, 0, 0, 0, time.UTC))
	code, res = e.do(t, http.MethodGet, "/api/v1/subscriptions/expiring?days=7", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]membership.Subscription](t, res.Data), 1)

	code, res = e.do(t, http.MethodGet, "/api/v1/subscriptions/expiring?days=2", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]membership.Subscription](t, res.Data))
}

type brokenPlans struct{}

func (brokenPlans) ListPlans(context.Context, bool) ([]catalog.Plan, error) {
	return nil, errors.New("connection refused to 10.0.0.5")
}

func TestInternalErrorsHideDetails(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	tokens, err := jwt.NewFromString("test-secret", jwt.WithIssuer("gymcrm"))
	require.NoError(t, err)
	e.handler = api.New(api.Config{}, e.svc, brokenPlans{}, tokens)

	code, res := e.do(t, http.MethodGet, "/api/v1/plans", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal_error", res.Error.Code)
	assert.NotContains(t, res.Error.Message, "10.0.0.5")
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	code, res := e.do(t, http.MethodGet, "/api/v2/plans", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", res.Error.Code)
}

func TestNewPanicsWithoutDependencies(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { api.New(api.Config{}, nil, nil, nil) })
}

func TestRateLimitedRequestsGetEnvelope(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	limiter, err := ratelimiter.New(ratelimiter.Config{Rate: 0.001, Burst: 2, MaxKeys: 8, IdleTTL: time.Minute})
	require.NoError(t, err)
	cat := catalog.NewMemory().AddPlans(monthly)
	tokens, err := jwt.NewFromString("test-secret", jwt.WithIssuer("gymcrm"))
	require.NoError(t, err)
	e.handler = api.New(api.Config{CORSOrigins: []string{"*"}, BodyLimit: 1 << 20, TrustProxy: true},
		e.svc, cat, tokens, api.WithRateLimiter(limiter))

	for range 2 {
		code, _ := e.do(t, http.MethodGet, "/api/v1/plans", "")
		require.Equal(t, http.StatusOK, code)
	}

	code, res := e.do(t, http.MethodGet, "/api/v1/plans", "")
	assert.Equal(t, http.StatusTooManyRequests, code)
	require.NotNil(t, res.Error)
	assert.Equal(t, "rate_limited", res.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("X-Real-IP", "203.0.113.77")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
