package queue

import "errors"

var (
	ErrRepositoryNil    = errors.New("repository cannot be nil")
	ErrPayloadNil       = errors.New("payload cannot be nil")
	ErrPayloadMarshal   = errors.New("failed to marshal payload to JSON")
	ErrTaskCreate       = errors.New("failed to create task in storage")
	ErrInvalidPriority  = errors.New("priority must be between 0 and 100")
	ErrHandlerNotFound  = errors.New("no handler registered for task type")
	ErrNoHandlers       = errors.New("no task handlers registered")
	ErrWorkerStarted    = errors.New("worker already started")
	ErrWorkerNotStarted = errors.New("worker not started")
	ErrShutdownTimeout  = errors.New("worker did not stop in time")

	// ErrNoTaskToClaim is returned by ClaimTask when nothing is due. Workers
	// treat it as an idle tick, not a failure.
	ErrNoTaskToClaim = errors.New("no task to claim")

	ErrTaskNotFound      = errors.New("task not found")
	ErrTaskNotProcessing = errors.New("task is not in processing state")
	ErrTaskExists        = errors.New("task already exists")

	ErrInvalidSchedule        = errors.New("invalid schedule format")
	ErrTaskAlreadyRegistered  = errors.New("task already registered")
	ErrSchedulerNotConfigured = errors.New("scheduler has no registered tasks")

	ErrFailedToMoveToDLQ = errors.New("failed to move task to dead letter queue")
)
