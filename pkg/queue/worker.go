package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/pkg/logger"
)

// WorkerRepository is the storage side of task processing.
type WorkerRepository interface {
	// ClaimTask locks the next due task for workerID, or returns ErrNoTaskToClaim.
	ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error)

	CompleteTask(ctx context.Context, taskID uuid.UUID) error

	// FailTask records errMsg, increments RetryCount and makes the task
	// claimable again at nextAttemptAt.
	FailTask(ctx context.Context, taskID uuid.UUID, errMsg string, nextAttemptAt time.Time) error

	// MoveToDLQ removes the task from the queue and parks it in the dead
	// letter queue with errMsg as the final error.
	MoveToDLQ(ctx context.Context, taskID uuid.UUID, errMsg string) error
}

// DeadLetterRepository lets operators inspect dead tasks and put them back.
type DeadLetterRepository interface {
	ListDeadLetters(ctx context.Context, limit int) ([]DeadLetter, error)
	// RequeueDeadLetter returns ErrTaskNotFound for an unknown id.
	RequeueDeadLetter(ctx context.Context, id uuid.UUID, maxRetries int8) (*Task, error)
}

// Outcome is how a single attempt ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeRetried   Outcome = "retried"
	OutcomeDead      Outcome = "dead"
)

// Observer receives the outcome of every attempt. Implementations must be
// safe for concurrent use.
type Observer interface {
	ObserveTask(taskName string, outcome Outcome, duration time.Duration)
}

// Worker claims due tasks and dispatches them to handlers. A failed attempt is
// rescheduled using the backoff strategy until MaxRetries is exhausted, after
// which the task goes to the dead letter queue.
type Worker struct {
	repo     WorkerRepository
	handlers map[string]Handler
	workerID uuid.UUID
	sem      chan struct{}

	queues       []string
	pullInterval time.Duration
	lockTimeout  time.Duration
	stopTimeout  time.Duration
	concurrency  int
	backoff      BackoffStrategy
	clock        clock.Clock
	observer     Observer
	logger       *slog.Logger

	mu     sync.RWMutex
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewWorker(repo WorkerRepository, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	w := &Worker{
		repo:         repo,
		handlers:     make(map[string]Handler),
		workerID:     newID(),
		queues:       []string{DefaultQueueName},
		pullInterval: 2 * time.Second,
		lockTimeout:  5 * time.Minute,
		stopTimeout:  30 * time.Second,
		concurrency:  1,
		backoff:      DefaultBackoff(),
		clock:        clock.New(nil),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.sem = make(chan struct{}, w.concurrency)
	w.logger = w.logger.With(logger.Component("queue.worker"))
	return w, nil
}

// RegisterHandlers adds handlers keyed by their Name. A later handler with
// the same name replaces the earlier one.
func (w *Worker) RegisterHandlers(handlers ...Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			w.handlers[h.Name()] = h
		}
	}
}

// Start launches the polling loop in the background.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return ErrWorkerStarted
	}
	if len(w.handlers) == 0 {
		return ErrNoHandlers
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.loop(loopCtx)

	w.logger.Info("worker started",
		slog.String("worker_id", w.workerID.String()),
		slog.Any("queues", w.queues),
		slog.Int("max_concurrent", cap(w.sem)))

	return nil
}

// Stop cancels polling and waits for in-flight tasks to finish. Tasks still
// running after the shutdown timeout keep their lock and are reclaimed by
// another worker once it expires.
func (w *Worker) Stop() error {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return ErrWorkerNotStarted
	}
	cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("worker stopped", slog.String("worker_id", w.workerID.String()))
		return nil
	case <-time.After(w.stopTimeout):
		w.logger.Warn("worker stop timed out", slog.String("worker_id", w.workerID.String()))
		return ErrShutdownTimeout
	}
}

// Run returns a function suitable for errgroup.Go.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.fill(ctx)
		}
	}
}

// fill starts one goroutine per free slot; each drains the queue until it
// finds nothing to claim.
func (w *Worker) fill(ctx context.Context) {
	for {
		select {
		case w.sem <- struct{}{}:
		default:
			return
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer func() { <-w.sem }()

			for ctx.Err() == nil {
				processed, err := w.ProcessNext(ctx)
				if err != nil {
					w.logger.Error("failed to process task", logger.Error(err))
					return
				}
				if !processed {
					return
				}
			}
		}()
	}
}

// ProcessNext claims and executes a single task. It reports false when no
// task was due.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	task, err := w.repo.ClaimTask(ctx, w.workerID, w.queues, w.lockTimeout)
	if errors.Is(err, ErrNoTaskToClaim) || (err == nil && task == nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim task: %w", err)
	}

	return true, w.process(ctx, task)
}

func (w *Worker) process(ctx context.Context, task *Task) (retErr error) {
	start := w.clock.Now()
	log := w.logger.With(logger.TaskID(task.ID), logger.TaskName(task.TaskName))

	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panicked", slog.Any("panic", r))
			retErr = w.fail(ctx, log, task, fmt.Errorf("panic in handler: %v", r), start)
		}
	}()

	w.mu.RLock()
	handler, ok := w.handlers[task.TaskName]
	w.mu.RUnlock()

	if !ok {
		// Retrying cannot help until a handler is deployed.
		log.Error("no handler registered for task")
		if err := w.repo.MoveToDLQ(ctx, task.ID, ErrHandlerNotFound.Error()+": "+task.TaskName); err != nil {
			return errors.Join(ErrFailedToMoveToDLQ, err)
		}
		w.observe(task, OutcomeDead, start)
		return nil
	}

	// Shutdown must not abort a task that is already running.
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.lockTimeout)
	defer cancel()

	if err := handler.Handle(hctx, task.Payload); err != nil {
		return w.fail(ctx, log, task, err, start)
	}

	if err := w.repo.CompleteTask(ctx, task.ID); err != nil {
		return fmt.Errorf("complete task %s: %w", task.ID, err)
	}
	w.observe(task, OutcomeCompleted, start)
	log.Info("task completed", logger.Duration(w.clock.Now().Sub(start)))

	return nil
}

func (w *Worker) fail(ctx context.Context, log *slog.Logger, task *Task, execErr error, start time.Time) error {
	if task.Exhausted() {
		if err := w.repo.MoveToDLQ(ctx, task.ID, execErr.Error()); err != nil {
			return errors.Join(ErrFailedToMoveToDLQ, err)
		}
		w.observe(task, OutcomeDead, start)
		log.Error("task permanently failed, moved to dead letter queue",
			logger.RetryCount(int(task.RetryCount)),
			logger.Error(execErr))
		return nil
	}

	attempt := task.Attempt()
	next := w.clock.Now().Add(w.backoff.NextInterval(attempt))
	if err := w.repo.FailTask(ctx, task.ID, execErr.Error(), next); err != nil {
		return fmt.Errorf("fail task %s: %w", task.ID, err)
	}
	w.observe(task, OutcomeRetried, start)
	log.Warn("task failed, retry scheduled",
		logger.RetryCount(attempt),
		slog.Time("next_attempt_at", next),
		logger.Error(execErr))

	return nil
}

func (w *Worker) observe(task *Task, outcome Outcome, start time.Time) {
	if w.observer != nil {
		w.observer.ObserveTask(task.TaskName, outcome, w.clock.Now().Sub(start))
	}
}
