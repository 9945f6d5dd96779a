// Package requestid correlates log records of one HTTP request through the
// X-Request-ID header, the request context and the logger.
package requestid
