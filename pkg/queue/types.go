package queue

import (
	"time"

	"github.com/google/uuid"
)

// DefaultQueueName is the queue every task lands in unless WithQueue says
// otherwise.
const DefaultQueueName = "default"

// TaskType tells apart tasks enqueued by domain code and tasks materialised by
// the Scheduler.
type TaskType string

const (
	TaskTypeOneTime  TaskType = "one-time"
	TaskTypePeriodic TaskType = "periodic"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Priority orders claims within a queue, 0 to 100.
type Priority int8

const (
	PriorityLow     Priority = 25
	PriorityDefault Priority = 50
	PriorityHigh    Priority = 75
)

func (p Priority) Valid() bool { return p >= 0 && p <= 100 }

// maxRetriesLimit caps the retry budget a task may ask for.
const maxRetriesLimit = 10

type Task struct {
	ID          uuid.UUID
	Queue       string
	TaskType    TaskType
	TaskName    string
	Payload     []byte
	Status      TaskStatus
	Priority    Priority
	RetryCount  int8
	MaxRetries  int8
	ScheduledAt time.Time
	LockedUntil *time.Time
	LockedBy    *uuid.UUID
	ProcessedAt *time.Time
	Error       *string
	CreatedAt   time.Time
}

// Attempt is the 1-based number of the run in progress.
func (t *Task) Attempt() int { return int(t.RetryCount) + 1 }

// Exhausted reports whether a failure of the current run is final. A task runs
// at most MaxRetries+1 times.
func (t *Task) Exhausted() bool { return t.RetryCount >= t.MaxRetries }

// DeadLetter is a task parked after its last failed attempt. It stays until an
// operator requeues it.
type DeadLetter struct {
	ID         uuid.UUID
	TaskID     uuid.UUID
	Queue      string
	TaskType   TaskType
	TaskName   string
	Payload    []byte
	Priority   Priority
	Error      string
	RetryCount int8
	FailedAt   time.Time
}

func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
