// Package ratelimiter throttles HTTP clients with one token bucket per key.
//
// Buckets are golang.org/x/time/rate limiters kept in a bounded LRU so idle
// keys are evicted after IdleTTL. The middleware publishes the standard
// X-RateLimit-* headers and answers 429 with Retry-After once a key has
// spent its burst.
//
//	lim, err := ratelimiter.New(cfg)
//	r.Use(ratelimiter.Middleware(lim, ratelimiter.ClientIPKey))
package ratelimiter
