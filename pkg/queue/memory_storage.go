package queue

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
)

// MemoryStorage keeps tasks in process memory. It implements every repository
// interface of the package and backs tests and single-process development.
// Expired locks are reclaimed lazily on ClaimTask.
type MemoryStorage struct {
	mu    sync.Mutex
	clock clock.Clock
	tasks map[uuid.UUID]*Task
	dlq   []DeadLetter
}

// NewMemoryStorage returns an empty storage. A nil clock uses wall time.
func NewMemoryStorage(c clock.Clock) *MemoryStorage {
	if c == nil {
		c = clock.New(nil)
	}
	return &MemoryStorage{
		clock: c,
		tasks: make(map[uuid.UUID]*Task),
	}
}

func (ms *MemoryStorage) CreateTask(_ context.Context, task *Task) error {
	if task == nil {
		return ErrPayloadNil
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.tasks[task.ID]; ok {
		return ErrTaskExists
	}
	t := *task
	ms.tasks[task.ID] = &t
	return nil
}

// ClaimTask picks the highest priority due task; ties go to the earliest
// ScheduledAt.
func (ms *MemoryStorage) ClaimTask(_ context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.clock.Now()
	var best *Task
	for _, t := range ms.tasks {
		if !slices.Contains(queues, t.Queue) || t.ScheduledAt.After(now) {
			continue
		}
		claimable := t.Status == TaskStatusPending ||
			(t.Status == TaskStatusProcessing && t.LockedUntil != nil && t.LockedUntil.Before(now))
		if !claimable {
			continue
		}
		if best == nil || t.Priority > best.Priority ||
			(t.Priority == best.Priority && t.ScheduledAt.Before(best.ScheduledAt)) {
			best = t
		}
	}
	if best == nil {
		return nil, ErrNoTaskToClaim
	}

	lockedUntil := now.Add(lockDuration)
	best.Status = TaskStatusProcessing
	best.LockedUntil = &lockedUntil
	best.LockedBy = &workerID

	t := *best
	return &t, nil
}

func (ms *MemoryStorage) CompleteTask(_ context.Context, taskID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	t, err := ms.processing(taskID)
	if err != nil {
		return err
	}
	now := ms.clock.Now()
	t.Status = TaskStatusCompleted
	t.ProcessedAt = &now
	t.LockedUntil, t.LockedBy = nil, nil
	return nil
}

func (ms *MemoryStorage) FailTask(_ context.Context, taskID uuid.UUID, errMsg string, nextAttemptAt time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	t, err := ms.processing(taskID)
	if err != nil {
		return err
	}
	t.RetryCount++
	t.Error = &errMsg
	t.Status = TaskStatusPending
	t.ScheduledAt = nextAttemptAt
	t.LockedUntil, t.LockedBy = nil, nil
	return nil
}

func (ms *MemoryStorage) MoveToDLQ(_ context.Context, taskID uuid.UUID, errMsg string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	t, ok := ms.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	now := ms.clock.Now()
	ms.dlq = append(ms.dlq, DeadLetter{
		ID:         newID(),
		TaskID:     t.ID,
		Queue:      t.Queue,
		TaskType:   t.TaskType,
		TaskName:   t.TaskName,
		Payload:    t.Payload,
		Priority:   t.Priority,
		Error:      errMsg,
		RetryCount: t.RetryCount,
		FailedAt:   now,
	})
	delete(ms.tasks, taskID)
	return nil
}

// GetPendingTaskByName implements SchedulerRepository.
func (ms *MemoryStorage) GetPendingTaskByName(_ context.Context, taskName string) (*Task, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, t := range ms.tasks {
		if t.TaskName == taskName && (t.Status == TaskStatusPending || t.Status == TaskStatusProcessing) {
			c := *t
			return &c, nil
		}
	}
	return nil, ErrTaskNotFound
}

// Tasks returns a copy of every task still in the queue ordered by creation.
func (ms *MemoryStorage) Tasks() []Task {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	out := make([]Task, 0, len(ms.tasks))
	for _, t := range ms.tasks {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b Task) int { return cmp.Compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano()) })
	return out
}

// DeadLetters returns a copy of the dead letter queue, oldest first.
func (ms *MemoryStorage) DeadLetters() []DeadLetter {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return slices.Clone(ms.dlq)
}

func (ms *MemoryStorage) ListDeadLetters(_ context.Context, limit int) ([]DeadLetter, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	out := slices.Clone(ms.dlq)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (ms *MemoryStorage) RequeueDeadLetter(_ context.Context, id uuid.UUID, maxRetries int8) (*Task, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	i := slices.IndexFunc(ms.dlq, func(d DeadLetter) bool { return d.ID == id })
	if i < 0 {
		return nil, ErrTaskNotFound
	}
	d := ms.dlq[i]
	if _, ok := ms.tasks[d.TaskID]; ok {
		return nil, ErrTaskExists
	}

	now := ms.clock.Now()
	t := &Task{
		ID:          d.TaskID,
		Queue:       d.Queue,
		TaskType:    d.TaskType,
		TaskName:    d.TaskName,
		Payload:     d.Payload,
		Status:      TaskStatusPending,
		Priority:    d.Priority,
		MaxRetries:  maxRetries,
		ScheduledAt: now,
		CreatedAt:   now,
	}
	ms.tasks[t.ID] = t
	ms.dlq = slices.Delete(ms.dlq, i, i+1)

	c := *t
	return &c, nil
}

func (ms *MemoryStorage) processing(taskID uuid.UUID) (*Task, error) {
	t, ok := ms.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if t.Status != TaskStatusProcessing {
		return nil, ErrTaskNotProcessing
	}
	return t, nil
}
