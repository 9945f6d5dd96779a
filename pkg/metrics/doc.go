// Package metrics exposes Prometheus collectors for the HTTP API, the task
// queue, subscription transitions and notifications, served from /metrics.
package metrics
