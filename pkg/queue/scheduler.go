package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/pkg/logger"
)

// SchedulerRepository is the storage side of the scheduler.
type SchedulerRepository interface {
	CreateTask(ctx context.Context, task *Task) error
	// GetPendingTaskByName returns a pending or processing task with the
	// given name, or an error when there is none.
	GetPendingTaskByName(ctx context.Context, taskName string) (*Task, error)
}

// Scheduler materialises periodic tasks. At most one instance of each task
// is outstanding at a time, so several processes may run a scheduler against
// the same storage.
type Scheduler struct {
	repo     SchedulerRepository
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger

	mu    sync.RWMutex
	tasks map[string]scheduledTask
}

type scheduledTask struct {
	name       string
	schedule   Schedule
	queue      string
	priority   Priority
	maxRetries int8
}

func NewScheduler(repo SchedulerRepository, opts ...SchedulerOption) (*Scheduler, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	s := &Scheduler{
		repo:     repo,
		clock:    clock.New(nil),
		interval: 30 * time.Second,
		logger:   slog.Default(),
		tasks:    make(map[string]scheduledTask),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("queue.scheduler"))
	return s, nil
}

// AddTask registers a periodic task. Its handler must be registered on a
// worker with NewPeriodicTaskHandler under the same name.
func (s *Scheduler) AddTask(name string, schedule Schedule, opts ...TaskOption) error {
	if schedule == nil {
		return ErrInvalidSchedule
	}

	o := taskOptions{queue: DefaultQueueName, priority: PriorityDefault, maxRetries: 3}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.priority.Valid() {
		return ErrInvalidPriority
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[name]; ok {
		return ErrTaskAlreadyRegistered
	}
	s.tasks[name] = scheduledTask{
		name:       name,
		schedule:   schedule,
		queue:      o.queue,
		priority:   o.priority,
		maxRetries: o.maxRetries,
	}

	s.logger.Info("registered periodic task", logger.TaskName(name), slog.String("schedule", schedule.String()))
	return nil
}

// Run returns a function suitable for errgroup.Go.
func (s *Scheduler) Run(ctx context.Context) func() error {
	return func() error {
		s.mu.RLock()
		n := len(s.tasks)
		s.mu.RUnlock()
		if n == 0 {
			return ErrSchedulerNotConfigured
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.Tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}
}

// Tick creates the next instance of every periodic task that has none
// outstanding.
func (s *Scheduler) Tick(ctx context.Context) {
	s.mu.RLock()
	tasks := make([]scheduledTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.RUnlock()

	now := s.clock.Now()
	for _, t := range tasks {
		if existing, err := s.repo.GetPendingTaskByName(ctx, t.name); err == nil && existing != nil {
			continue
		}

		next := t.schedule.Next(now)
		err := s.repo.CreateTask(ctx, &Task{
			ID:          newID(),
			Queue:       t.queue,
			TaskType:    TaskTypePeriodic,
			TaskName:    t.name,
			Status:      TaskStatusPending,
			Priority:    t.priority,
			MaxRetries:  t.maxRetries,
			ScheduledAt: next,
			CreatedAt:   now,
		})
		if err != nil {
			s.logger.Error("failed to schedule periodic task", logger.TaskName(t.name), logger.Error(err))
			continue
		}
		s.logger.Debug("scheduled periodic task", logger.TaskName(t.name), slog.Time("scheduled_at", next))
	}
}
