package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrymomot/gymcrm/pkg/clientip"
	"github.com/dmitrymomot/gymcrm/pkg/httpserver"
	"github.com/dmitrymomot/gymcrm/pkg/logger"
	"github.com/dmitrymomot/gymcrm/pkg/ratelimiter"
	"github.com/dmitrymomot/gymcrm/pkg/requestid"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestid.Middleware)
	if s.cfg.TrustProxy {
		r.Use(clientip.Middleware(clientip.DefaultHeaders...))
	} else {
		r.Use(clientip.Middleware())
	}
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(s.accessLog)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(s.log, s.checks...))
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", requestid.Header},
			ExposedHeaders: []string{requestid.Header},
			MaxAge:         300,
		}))
		if s.limiter != nil {
			r.Use(ratelimiter.Middleware(s.limiter, ratelimiter.ClientIPKey,
				ratelimiter.WithDenyHandler(s.rateLimited)))
		}
		r.Use(s.limitBody)
		r.Use(s.authenticate())

		r.Get("/plans", s.handle(s.listPlans))

		r.Route("/members", func(r chi.Router) {
			r.Get("/", s.handle(s.listMembers))
			r.Get("/lookup", s.handle(s.lookupMember))
			r.Get("/{id}/membership", s.handle(s.memberSummary))
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", s.handle(s.listSubscriptions))
			r.Post("/", s.handle(withBody(s, false, s.enroll)))
			r.Get("/stats", s.handle(s.stats))
			r.Get("/expiring", s.handle(s.expiring))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handle(s.getSubscription))
				r.Patch("/", s.handle(withBody(s, false, s.updateSubscription)))
				r.Post("/activate", s.handle(s.activate))
				r.Post("/cancel", s.handle(s.cancel))
				r.Post("/change-plan", s.handle(withBody(s, false, s.changePlan)))
				r.Post("/renew", s.handle(withBody(s, true, s.renew)))
				r.Get("/history", s.handle(s.history))
				r.Get("/plan-changes", s.handle(s.planChanges))
			})
		})
	})

	notFound := func(w http.ResponseWriter, r *http.Request) {
		_ = errorJSON(http.StatusNotFound, ErrorDetail{
			Code:      "not_found",
			Message:   "Route not found",
			RequestID: requestid.FromContext(r.Context()),
		}).Render(w, r)
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = errorJSON(http.StatusMethodNotAllowed, ErrorDetail{
			Code:      "method_not_allowed",
			Message:   "Method not allowed",
			RequestID: requestid.FromContext(r.Context()),
		}).Render(w, r)
	})

	return r
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request, _ ratelimiter.Result) {
	_ = errorJSON(http.StatusTooManyRequests, ErrorDetail{
		Code:      "rate_limited",
		Message:   "Too many requests",
		RequestID: requestid.FromContext(r.Context()),
	}).Render(w, r)
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.BodyLimit > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.cfg.BodyLimit)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.log.LogAttrs(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			logger.Duration(time.Since(start)),
		)
	})
}
