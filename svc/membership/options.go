package membership

import (
	"log/slog"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
)

// TransitionObserver is told about every committed lifecycle event.
type TransitionObserver interface {
	ObserveTransition(event string)
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock deciding "today". Defaults to UTC wall time.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver receives one call per committed transition.
func WithObserver(o TransitionObserver) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// WithNotificationQueue routes notification tasks to the named queue.
func WithNotificationQueue(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.queueName = name
		}
	}
}

// WithNotificationRetries caps retries per notification task.
func WithNotificationRetries(n int8) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithReminderDays sets how many days before the end date expiry reminders
// go out. Defaults to 7, 3 and 1.
func WithReminderDays(days ...int) Option {
	return func(s *Service) {
		if len(days) > 0 {
			s.reminderDays = days
		}
	}
}
