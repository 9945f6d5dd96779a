package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
)

// EnqueuerRepository persists new tasks. Storages that accept a pgx.Tx let the
// task commit atomically with the business write that produced it.
type EnqueuerRepository interface {
	CreateTask(ctx context.Context, task *Task) error
}

// Enqueuer turns payloads into one-time tasks.
type Enqueuer struct {
	repo     EnqueuerRepository
	clock    clock.Clock
	defaults []TaskOption
}

func NewEnqueuer(repo EnqueuerRepository, opts ...EnqueuerOption) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	e := &Enqueuer{repo: repo, clock: clock.New(nil)}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Enqueue stores payload as a task named after its Go type unless
// WithTaskName overrides it.
func (e *Enqueuer) Enqueue(ctx context.Context, payload any, opts ...TaskOption) error {
	if payload == nil {
		return ErrPayloadNil
	}

	o := taskOptions{queue: DefaultQueueName, priority: PriorityDefault, maxRetries: 3}
	for _, opt := range e.defaults {
		opt(&o)
	}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.priority.Valid() {
		return ErrInvalidPriority
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Join(ErrPayloadMarshal, fmt.Errorf("payload of type %T: %w", payload, err))
	}
	if o.name == "" {
		o.name = taskNameOf(payload)
	}

	now := e.clock.Now()
	at := o.scheduledAt
	if at.IsZero() {
		at = now.Add(o.delay)
	}

	task := &Task{
		ID:          newID(),
		Queue:       o.queue,
		TaskType:    TaskTypeOneTime,
		TaskName:    o.name,
		Payload:     body,
		Status:      TaskStatusPending,
		Priority:    o.priority,
		MaxRetries:  o.maxRetries,
		ScheduledAt: at,
		CreatedAt:   now,
	}
	if err := e.repo.CreateTask(ctx, task); err != nil {
		return errors.Join(ErrTaskCreate, fmt.Errorf("task %q in queue %q: %w", task.TaskName, task.Queue, err))
	}
	return nil
}
