package ratelimiter

import (
	"net/http"
	"strconv"

	"github.com/dmitrymomot/gymcrm/pkg/clientip"
)

// KeyFunc extracts the throttling key from a request. An empty key skips
// the limiter.
type KeyFunc func(r *http.Request) string

// ClientIPKey keys on the address stored by clientip.Middleware, falling back
// to the TCP peer.
func ClientIPKey(r *http.Request) string {
	if ip := clientip.FromContext(r.Context()); ip != "" {
		return ip
	}
	return clientip.GetIP(r)
}

// DenyHandler writes the response for a throttled request. Headers are
// already set when it runs.
type DenyHandler func(w http.ResponseWriter, r *http.Request, res Result)

type middlewareOptions struct {
	deny DenyHandler
}

type MiddlewareOption func(*middlewareOptions)

func WithDenyHandler(h DenyHandler) MiddlewareOption {
	return func(o *middlewareOptions) {
		if h != nil {
			o.deny = h
		}
	}
}

func Middleware(l *Limiter, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if l == nil {
		panic("ratelimiter: limiter is required")
	}
	if keyFunc == nil {
		keyFunc = ClientIPKey
	}
	o := middlewareOptions{
		deny: func(w http.ResponseWriter, _ *http.Request, _ Result) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res := l.Allow(key)
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				secs := int(res.RetryAfter(l.now()).Seconds() + 0.999)
				if secs < 1 {
					secs = 1
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				o.deny(w, r, res)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
