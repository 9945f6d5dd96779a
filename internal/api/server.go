package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/httpserver"
	"github.com/dmitrymomot/gymcrm/pkg/jwt"
	"github.com/dmitrymomot/gymcrm/pkg/logger"
	"github.com/dmitrymomot/gymcrm/pkg/metrics"
	"github.com/dmitrymomot/gymcrm/pkg/ratelimiter"
	"github.com/dmitrymomot/gymcrm/pkg/requestid"
	"github.com/dmitrymomot/gymcrm/svc/catalog"
	"github.com/dmitrymomot/gymcrm/svc/membership"
)

// Memberships is the lifecycle engine as seen by the HTTP layer.
type Memberships interface {
	Enroll(ctx context.Context, p membership.EnrollParams, actor string) (membership.Subscription, error)
	Activate(ctx context.Context, id uuid.UUID, actor string) (membership.Subscription, error)
	ChangePlan(ctx context.Context, id, newPlanID uuid.UUID, actor string) (membership.Subscription, error)
	Cancel(ctx context.Context, id uuid.UUID, actor string) (membership.Subscription, error)
	Renew(ctx context.Context, id uuid.UUID, p membership.RenewParams, actor string) (membership.RenewResult, error)
	Update(ctx context.Context, id uuid.UUID, p membership.UpdateParams, actor string) (membership.Subscription, error)

	Get(ctx context.Context, id uuid.UUID) (membership.Subscription, error)
	List(ctx context.Context, f membership.ListFilter) ([]membership.Subscription, error)
	GetHistory(ctx context.Context, id uuid.UUID) ([]membership.HistoryEntry, error)
	GetPlanChangeLogs(ctx context.Context, id uuid.UUID) ([]membership.PlanChange, error)
	Stats(ctx context.Context) (membership.Stats, error)
	MemberBuckets(ctx context.Context) (map[membership.Bucket]int, error)
	ExpiringSoon(ctx context.Context, windowDays int) ([]membership.Subscription, error)

	MemberSummary(ctx context.Context, memberID int64) (membership.MemberStatus, error)
	LookupMember(ctx context.Context, l catalog.Lookup) (membership.MemberStatus, error)
	ListMembers(ctx context.Context, listing membership.MemberListing, days int) ([]membership.MemberStatus, error)
}

// Plans lists the plan catalog.
type Plans interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]catalog.Plan, error)
}

// Server is the JSON API. It implements http.Handler.
type Server struct {
	cfg         Config
	memberships Memberships
	plans       Plans
	tokens      *jwt.Service
	log         *slog.Logger
	metrics     *metrics.Metrics
	checks      []httpserver.Check
	limiter     *ratelimiter.Limiter
	validate    *validator.Validate
	handler     http.Handler
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records request metrics and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithReadinessChecks adds dependencies probed by /health/ready.
func WithReadinessChecks(checks ...httpserver.Check) Option {
	return func(s *Server) { s.checks = append(s.checks, checks...) }
}

// WithRateLimiter throttles /api/v1 per client address.
func WithRateLimiter(l *ratelimiter.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// New builds the API. memberships, plans and tokens are required.
func New(cfg Config, memberships Memberships, plans Plans, tokens *jwt.Service, opts ...Option) *Server {
	if memberships == nil {
		panic("api: memberships service is required")
	}
	if plans == nil {
		panic("api: plan source is required")
	}
	if tokens == nil {
		panic("api: token service is required")
	}

	s := &Server{
		cfg:         cfg,
		memberships: memberships,
		plans:       plans,
		tokens:      tokens,
		log:         logger.Discard(),
		validate:    newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("api"))
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type handlerFunc func(r *http.Request) (Response, error)

// handle renders the handler's response or maps its error onto the
// envelope.
func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h(r)
		if err != nil {
			resp = s.errorResponse(r, err)
		}
		if err := resp.Render(w, r); err != nil {
			s.log.ErrorContext(r.Context(), "failed to render response", logger.Error(err))
		}
	}
}

// withBody decodes and validates a JSON body before calling h.
func withBody[T any](s *Server, optional bool, h func(r *http.Request, body T) (Response, error)) handlerFunc {
	return func(r *http.Request) (Response, error) {
		var body T
		if err := decodeJSON(r, &body, optional); err != nil {
			return nil, err
		}
		if err := s.validate.Struct(body); err != nil {
			return nil, err
		}
		return h(r, body)
	}
}

func (s *Server) errorResponse(r *http.Request, err error) Response {
	ctx := r.Context()
	reqID := requestid.FromContext(ctx)

	var (
		httpErr   HTTPError
		domainErr *membership.Error
		fieldErrs validator.ValidationErrors
	)
	switch {
	case errors.As(err, &httpErr):
		if httpErr.Status >= http.StatusInternalServerError {
			s.log.ErrorContext(ctx, "request failed", logger.Error(err))
		}
		return errorJSON(httpErr.Status, ErrorDetail{
			Code:      httpErr.Code,
			Message:   httpErr.Message,
			Details:   httpErr.Details,
			RequestID: reqID,
		})
	case errors.As(err, &fieldErrs):
		return errorJSON(http.StatusUnprocessableEntity, ErrorDetail{
			Code:      string(membership.KindValidation),
			Message:   "Invalid request parameters",
			Details:   validationDetails(fieldErrs),
			RequestID: reqID,
		})
	case errors.As(err, &domainErr) && domainErr.Kind != membership.KindDependency:
		return errorJSON(statusFor(domainErr.Kind), ErrorDetail{
			Code:      domainErr.Code(),
			Message:   domainErr.Message,
			RequestID: reqID,
		})
	}

	s.log.ErrorContext(ctx, "request failed", logger.Error(err))
	return errorJSON(http.StatusInternalServerError, ErrorDetail{
		Code:      "internal_error",
		Message:   "Internal server error",
		RequestID: reqID,
	})
}

func statusFor(k membership.Kind) int {
	switch k {
	case membership.KindNotFound:
		return http.StatusNotFound
	case membership.KindValidation:
		return http.StatusUnprocessableEntity
	case membership.KindConflict, membership.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
