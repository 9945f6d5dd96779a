package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/pkg/pg"
)

// PostgresStorage persists tasks in the queue_tasks and queue_tasks_dlq
// tables. Built over a pgx.Tx it enqueues inside the caller's transaction,
// which is how domain events become a transactional outbox.
type PostgresStorage struct {
	db    pg.DBTX
	clock clock.Clock
}

// NewPostgresStorage panics on a nil db. A nil clock uses wall time.
func NewPostgresStorage(db pg.DBTX, c clock.Clock) *PostgresStorage {
	if db == nil {
		panic("queue: nil database handle")
	}
	if c == nil {
		c = clock.New(nil)
	}
	return &PostgresStorage{db: db, clock: c}
}

const taskColumns = `id, queue, task_type, task_name, payload, status, priority, retry_count,
	max_retries, scheduled_at, locked_until, locked_by, processed_at, error, created_at`

func (s *PostgresStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return ErrPayloadNil
	}
	payload := task.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO queue_tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULL, NULL, NULL, NULL, $11)`,
		task.ID, task.Queue, string(task.TaskType), task.TaskName, payload,
		string(task.Status), int16(task.Priority), int16(task.RetryCount), int16(task.MaxRetries),
		task.ScheduledAt, task.CreatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return ErrTaskExists
	}
	return err
}

// ClaimTask uses FOR UPDATE SKIP LOCKED so concurrent workers never claim the
// same row. Processing rows whose lock expired are claimable again.
func (s *PostgresStorage) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	now := s.clock.Now()
	row := s.db.QueryRow(ctx, `
		UPDATE queue_tasks SET status = 'processing', locked_until = $3, locked_by = $2
		WHERE id = (
			SELECT id FROM queue_tasks
			WHERE queue = ANY($1)
			  AND scheduled_at <= $4
			  AND (status = 'pending' OR (status = 'processing' AND locked_until < $4))
			ORDER BY priority DESC, scheduled_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+taskColumns,
		queues, workerID, now.Add(lockDuration), now,
	)
	task, err := scanTask(row)
	if pg.IsNotFoundError(err) {
		return nil, ErrNoTaskToClaim
	}
	return task, err
}

func (s *PostgresStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE queue_tasks
		SET status = 'completed', processed_at = $2, locked_until = NULL, locked_by = NULL
		WHERE id = $1 AND status = 'processing'`,
		taskID, s.clock.Now(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotProcessing
	}
	return nil
}

func (s *PostgresStorage) FailTask(ctx context.Context, taskID uuid.UUID, errMsg string, nextAttemptAt time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE queue_tasks
		SET status = 'pending', retry_count = retry_count + 1, error = $2,
		    scheduled_at = $3, locked_until = NULL, locked_by = NULL
		WHERE id = $1 AND status = 'processing'`,
		taskID, errMsg, nextAttemptAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotProcessing
	}
	return nil
}

// MoveToDLQ copies the task into queue_tasks_dlq and deletes it in one
// statement so a crash cannot lose or duplicate it.
func (s *PostgresStorage) MoveToDLQ(ctx context.Context, taskID uuid.UUID, errMsg string) error {
	now := s.clock.Now()
	tag, err := s.db.Exec(ctx, `
		WITH moved AS (
			DELETE FROM queue_tasks WHERE id = $1
			RETURNING id, queue, task_type, task_name, payload, priority, retry_count
		)
		INSERT INTO queue_tasks_dlq
			(id, task_id, queue, task_type, task_name, payload, priority, error, retry_count, failed_at, created_at)
		SELECT $2, id, queue, task_type, task_name, payload, priority, $3, retry_count, $4, $4 FROM moved`,
		taskID, newID(), errMsg, now,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// GetPendingTaskByName implements SchedulerRepository.
func (s *PostgresStorage) GetPendingTaskByName(ctx context.Context, taskName string) (*Task, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM queue_tasks
		WHERE task_name = $1 AND status IN ('pending', 'processing')
		ORDER BY scheduled_at
		LIMIT 1`,
		taskName,
	)
	task, err := scanTask(row)
	if pg.IsNotFoundError(err) {
		return nil, ErrTaskNotFound
	}
	return task, err
}

// ListDeadLetters returns the newest dead tasks first.
func (s *PostgresStorage) ListDeadLetters(ctx context.Context, limit int) ([]DeadLetter, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, task_id, queue, task_type, task_name, payload, priority, error, retry_count, failed_at
		FROM queue_tasks_dlq
		ORDER BY failed_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (DeadLetter, error) {
		var (
			d                    DeadLetter
			taskType             string
			priority, retryCount int16
		)
		err := row.Scan(&d.ID, &d.TaskID, &d.Queue, &taskType, &d.TaskName, &d.Payload,
			&priority, &d.Error, &retryCount, &d.FailedAt)
		d.TaskType = TaskType(taskType)
		d.Priority = Priority(priority)
		d.RetryCount = int8(retryCount)
		return d, err
	})
}

// RequeueDeadLetter moves a dead task back into queue_tasks under its original
// id with a fresh retry budget, due immediately.
func (s *PostgresStorage) RequeueDeadLetter(ctx context.Context, id uuid.UUID, maxRetries int8) (*Task, error) {
	now := s.clock.Now()
	row := s.db.QueryRow(ctx, `
		WITH revived AS (
			DELETE FROM queue_tasks_dlq WHERE id = $1
			RETURNING task_id, queue, task_type, task_name, payload, priority
		)
		INSERT INTO queue_tasks
			(id, queue, task_type, task_name, payload, status, priority, retry_count, max_retries, scheduled_at, created_at)
		SELECT task_id, queue, task_type, task_name, payload, 'pending', priority, 0, $2, $3, $3 FROM revived
		RETURNING `+taskColumns,
		id, int16(maxRetries), now,
	)
	task, err := scanTask(row)
	if pg.IsNotFoundError(err) {
		return nil, ErrTaskNotFound
	}
	if pg.IsDuplicateKeyError(err) {
		return nil, ErrTaskExists
	}
	return task, err
}

func scanTask(row pgx.Row) (*Task, error) {
	var (
		t                             Task
		taskType, status              string
		priority, retries, maxRetries int16
	)
	err := row.Scan(&t.ID, &t.Queue, &taskType, &t.TaskName, &t.Payload, &status, &priority,
		&retries, &maxRetries, &t.ScheduledAt, &t.LockedUntil, &t.LockedBy, &t.ProcessedAt, &t.Error, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.TaskType = TaskType(taskType)
	t.Status = TaskStatus(status)
	t.Priority = Priority(priority)
	t.RetryCount = int8(retries)
	t.MaxRetries = int8(maxRetries)
	return &t, nil
}
