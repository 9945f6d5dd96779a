// Package queue is a storage-agnostic task queue used for side effects that
// must not block or roll back a business transaction: member notifications,
// receipts and the periodic expiry and reminder sweeps.
//
// Three components talk to storage through small interfaces:
//
//   - Enqueuer turns a payload into a pending Task.
//   - Scheduler keeps one outstanding instance of each periodic task.
//   - Worker claims due tasks and dispatches them to a Handler by name.
//
// MemoryStorage serves tests and single-process runs. PostgresStorage uses
// FOR UPDATE SKIP LOCKED for claims; built over a pgx.Tx it writes tasks in
// the caller's transaction, which makes the queue an outbox:
//
//	err := pg.WithTx(ctx, pool, func(tx pgx.Tx) error {
//		// ... business writes ...
//		enq, _ := queue.NewEnqueuer(queue.NewPostgresStorage(tx, clk))
//		return enq.Enqueue(ctx, SubscriptionEnrolled{ID: id})
//	})
//
// A failed attempt is retried after BackoffStrategy.NextInterval(attempt);
// the default policy waits 60s, 120s and 240s. Once RetryCount reaches
// MaxRetries the task moves to the dead letter queue and is logged as
// permanently failed. DeadLetterRepository lists parked tasks and requeues
// them with a fresh retry budget.
package queue
