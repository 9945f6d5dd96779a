package api

import (
	"net/http"

	"github.com/dmitrymomot/gymcrm/pkg/jwt"
	"github.com/dmitrymomot/gymcrm/pkg/logger"
)

// authenticate rejects requests without a valid staff bearer token.
func (s *Server) authenticate() func(http.Handler) http.Handler {
	return jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{
		Service: s.tokens,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.log.DebugContext(r.Context(), "rejected token", logger.Error(err))
			if err := s.errorResponse(r, errUnauthorized).Render(w, r); err != nil {
				s.log.ErrorContext(r.Context(), "failed to render response", logger.Error(err))
			}
		},
	})
}

// actor is the audit identity of the authenticated caller.
func actor(r *http.Request) string {
	claims, ok := jwt.GetClaims(r.Context())
	if !ok {
		return "anonymous"
	}
	return claims.Actor()
}
