package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/gymcrm/pkg/logger"
)

// Check is a named readiness dependency such as postgres or redis.
type Check struct {
	Name string
	Func func(context.Context) error
}

// LivenessHandler always answers 200 while the process serves HTTP.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, map[string]string{"status": "alive"})
	}
}

// ReadinessHandler runs every check with a short timeout and answers 503
// naming the failing dependencies.
func ReadinessHandler(log *slog.Logger, checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		result := map[string]string{"status": "ready"}
		status := http.StatusOK
		for _, c := range checks {
			if err := c.Func(ctx); err != nil {
				log.WarnContext(ctx, "readiness check failed", slog.String("dependency", c.Name), logger.Error(err))
				result[c.Name] = "unavailable"
				result["status"] = "not_ready"
				status = http.StatusServiceUnavailable
				continue
			}
			result[c.Name] = "ok"
		}
		writeHealth(w, status, result)
	}
}

func writeHealth(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
