package membership

import (
	"context"

	"github.com/dmitrymomot/gymcrm/pkg/queue"
)

// Periodic task names registered with the queue scheduler.
const (
	TaskExpireSweep     = "membership.expire_sweep"
	TaskExpiryReminders = "membership.expiry_reminders"
)

// SystemActor is recorded on changes made by scheduled jobs.
const SystemActor = "system"

// PeriodicHandlers returns the worker handlers for the daily expiry sweep
// and the expiry reminder run. Both are safe to repeat.
func (s *Service) PeriodicHandlers() []queue.Handler {
	return []queue.Handler{
		queue.NewPeriodicTaskHandler(TaskExpireSweep, func(ctx context.Context) error {
			_, err := s.Expire(ctx, SystemActor)
			return err
		}),
		queue.NewPeriodicTaskHandler(TaskExpiryReminders, func(ctx context.Context) error {
			_, err := s.SendExpiryReminders(ctx)
			return err
		}),
	}
}
