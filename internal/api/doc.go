// Package api exposes the membership engine as a JSON HTTP API for the
// front desk.
//
// Every route under /api/v1 requires a staff bearer token; the token
// subject becomes the actor recorded in subscription history. Responses use
// one envelope:
//
//	{"data": ..., "meta": {"count": 2}}
//	{"error": {"code": "conflict", "message": "...", "request_id": "..."}}
//
// Lifecycle error kinds map to statuses: not_found 404, validation_error
// 422, conflict and invalid_state 409. Anything else renders as a 500
// internal_error without internal details. With WithRateLimiter each client
// address gets a token bucket and throttled calls answer 429 rate_limited.
//
// Health probes live at /health/live and /health/ready, Prometheus metrics
// at /metrics when WithMetrics is set.
package api
