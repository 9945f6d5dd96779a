package queue

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
)

// TaskOption shapes a single task. Enqueue honours all of them; AddTask
// ignores the ones about timing and naming, which the schedule owns.
type TaskOption func(*taskOptions)

type taskOptions struct {
	queue       string
	name        string
	priority    Priority
	maxRetries  int8
	delay       time.Duration
	scheduledAt time.Time
}

func WithQueue(name string) TaskOption {
	return func(o *taskOptions) {
		if name != "" {
			o.queue = name
		}
	}
}

// WithTaskName overrides the payload-derived name. The worker then needs a
// NewNamedTaskHandler with the same name.
func WithTaskName(name string) TaskOption {
	return func(o *taskOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithPriority is checked at enqueue time; out of range values fail with
// ErrInvalidPriority.
func WithPriority(p Priority) TaskOption {
	return func(o *taskOptions) { o.priority = p }
}

// WithMaxRetries sets the retry budget. Values outside 0..10 are ignored.
func WithMaxRetries(n int8) TaskOption {
	return func(o *taskOptions) {
		if n >= 0 && n <= maxRetriesLimit {
			o.maxRetries = n
		}
	}
}

func WithDelay(d time.Duration) TaskOption {
	return func(o *taskOptions) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithScheduledAt wins over WithDelay.
func WithScheduledAt(at time.Time) TaskOption {
	return func(o *taskOptions) { o.scheduledAt = at }
}

type EnqueuerOption func(*Enqueuer)

// WithDefaults sets the options applied before the per-call ones.
func WithDefaults(opts ...TaskOption) EnqueuerOption {
	return func(e *Enqueuer) { e.defaults = append(e.defaults, opts...) }
}

func WithEnqueuerClock(c clock.Clock) EnqueuerOption {
	return func(e *Enqueuer) {
		if c != nil {
			e.clock = c
		}
	}
}

type SchedulerOption func(*Scheduler)

func WithCheckInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithSchedulerClock(c clock.Clock) SchedulerOption {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

type WorkerOption func(*Worker)

// WithQueues lists the queues the worker claims from.
func WithQueues(names ...string) WorkerOption {
	return func(w *Worker) {
		if len(names) > 0 {
			w.queues = names
		}
	}
}

func WithPullInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.pullInterval = d
		}
	}
}

// WithLockTimeout bounds both the claim lock and a single handler run.
func WithLockTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.lockTimeout = d
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for running handlers.
func WithShutdownTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.stopTimeout = d
		}
	}
}

func WithMaxConcurrentTasks(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

func WithBackoff(b BackoffStrategy) WorkerOption {
	return func(w *Worker) {
		if b != nil {
			w.backoff = b
		}
	}
}

func WithWorkerClock(c clock.Clock) WorkerOption {
	return func(w *Worker) {
		if c != nil {
			w.clock = c
		}
	}
}

// WithObserver reports attempt outcomes, e.g. to Prometheus.
func WithObserver(obs Observer) WorkerOption {
	return func(w *Worker) { w.observer = obs }
}

func WithWorkerLogger(l *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// FromConfig maps Config onto worker options.
func FromConfig(cfg Config) []WorkerOption {
	return []WorkerOption{
		WithPullInterval(cfg.PollInterval),
		WithLockTimeout(cfg.LockTimeout),
		WithShutdownTimeout(cfg.ShutdownTimeout),
		WithMaxConcurrentTasks(cfg.MaxConcurrentTasks),
		WithBackoff(cfg.Backoff()),
	}
}
