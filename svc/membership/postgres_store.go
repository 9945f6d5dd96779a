package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/pkg/pg"
	"github.com/dmitrymomot/gymcrm/pkg/queue"
	"github.com/dmitrymomot/gymcrm/svc/catalog"
)

// oneActiveIndex is the partial unique index enforcing one active
// subscription per member.
const oneActiveIndex = "subscriptions_one_active_per_member"

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	pg.DBTX
	pg.TxBeginner
}

// PostgresStore persists subscriptions with pgx. Notification tasks are
// written to the queue tables inside the same transaction.
type PostgresStore struct {
	pgReader
	db    DB
	clock clock.Clock
}

func NewPostgresStore(db DB, c clock.Clock) *PostgresStore {
	if db == nil {
		panic("membership: nil database handle")
	}
	if c == nil {
		c = clock.New(time.UTC)
	}
	return &PostgresStore{pgReader: pgReader{db: db}, db: db, clock: c}
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return pg.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&pgTx{pgReader: pgReader{db: tx}, tx: tx, clock: s.clock})
	})
}

const subColumns = `s.id, s.member_id, s.plan_id, s.start_date, s.end_date, s.status, s.is_renewal,
	s.signed_by_member, s.signature_file, s.member_snapshot, s.created_at, s.updated_at`

type pgReader struct {
	db pg.DBTX
}

func (r pgReader) GetSubscription(ctx context.Context, id uuid.UUID) (Subscription, error) {
	sub, err := scanSubscription(r.db.QueryRow(ctx, `SELECT `+subColumns+` FROM subscriptions s WHERE s.id = $1`, id))
	if pg.IsNotFoundError(err) {
		return Subscription{}, ErrSubscriptionNotFound
	}
	return sub, err
}

func (r pgReader) ListSubscriptions(ctx context.Context, f ListFilter) ([]Subscription, error) {
	var status *string
	if f.Status != "" {
		st := string(f.Status)
		status = &st
	}
	var memberID *int64
	if f.MemberID != 0 {
		memberID = &f.MemberID
	}
	var limit *int
	if f.Limit > 0 {
		limit = &f.Limit
	}
	return r.subscriptions(ctx, `
		SELECT `+subColumns+`
		FROM subscriptions s
		JOIN members m ON m.id = s.member_id
		WHERE ($1::bigint IS NULL OR s.member_id = $1)
		  AND ($2::text IS NULL OR s.status = $2)
		  AND ($3 = '' OR m.full_name ILIKE '%' || $3 || '%'
		       OR m.phone_number LIKE '%' || $3 || '%'
		       OR m.biometric_id ILIKE '%' || $3 || '%')
		ORDER BY s.start_date DESC, s.created_at DESC, s.id DESC
		LIMIT $4 OFFSET $5`,
		memberID, status, f.Query, limit, f.Offset)
}

func (r pgReader) MemberSubscriptions(ctx context.Context, memberID int64) ([]Subscription, error) {
	return r.subscriptions(ctx, `
		SELECT `+subColumns+` FROM subscriptions s
		WHERE s.member_id = $1
		ORDER BY s.created_at DESC, s.id DESC`, memberID)
}

func (r pgReader) CurrentSubscriptions(ctx context.Context) (map[int64]Subscription, error) {
	subs, err := r.subscriptions(ctx, `
		SELECT DISTINCT ON (s.member_id) `+subColumns+` FROM subscriptions s
		ORDER BY s.member_id, (s.status = 'active') DESC, s.created_at DESC, s.id DESC`)
	if err != nil {
		return nil, err
	}
	cur := make(map[int64]Subscription, len(subs))
	for _, sub := range subs {
		cur[sub.MemberID] = sub
	}
	return cur, nil
}

func (r pgReader) ActiveEndingBetween(ctx context.Context, from, to time.Time) ([]Subscription, error) {
	var lower *time.Time
	if !from.IsZero() {
		lower = &from
	}
	return r.subscriptions(ctx, `
		SELECT `+subColumns+` FROM subscriptions s
		WHERE s.status = 'active'
		  AND ($1::date IS NULL OR s.end_date >= $1)
		  AND s.end_date <= $2
		ORDER BY s.end_date, s.created_at, s.id`, lower, to)
}

func (r pgReader) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, count(*) FROM subscriptions GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

func (r pgReader) History(ctx context.Context, id uuid.UUID) ([]HistoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, subscription_id, snapshot, member_snapshot, note, changed_by, created_at
		FROM subscription_history
		WHERE subscription_id = $1
		ORDER BY created_at DESC, id DESC`, id)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (HistoryEntry, error) {
		var h HistoryEntry
		err := row.Scan(&h.ID, &h.SubscriptionID, &h.Snapshot, &h.MemberSnapshot, &h.Note, &h.ChangedBy, &h.CreatedAt)
		return h, err
	})
}

func (r pgReader) PlanChanges(ctx context.Context, id uuid.UUID) ([]PlanChange, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, subscription_id, old_plan_id, new_plan_id, changed_by, changed_at
		FROM subscription_plan_changes
		WHERE subscription_id = $1
		ORDER BY changed_at DESC, id DESC`, id)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (PlanChange, error) {
		var c PlanChange
		err := row.Scan(&c.ID, &c.SubscriptionID, &c.OldPlanID, &c.NewPlanID, &c.ChangedBy, &c.ChangedAt)
		return c, err
	})
}

func (r pgReader) subscriptions(ctx context.Context, query string, args ...any) ([]Subscription, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Subscription, error) {
		return scanSubscription(row)
	})
}

type pgTx struct {
	pgReader
	tx    pgx.Tx
	clock clock.Clock
}

func (t *pgTx) LockMember(ctx context.Context, memberID int64) (catalog.Member, error) {
	return catalog.NewPostgres(t.tx).LockMember(ctx, memberID)
}

func (t *pgTx) LockSubscription(ctx context.Context, id uuid.UUID) (Subscription, error) {
	sub, err := scanSubscription(t.tx.QueryRow(ctx,
		`SELECT `+subColumns+` FROM subscriptions s WHERE s.id = $1 FOR UPDATE`, id))
	if pg.IsNotFoundError(err) {
		return Subscription{}, ErrSubscriptionNotFound
	}
	return sub, err
}

func (t *pgTx) HasActive(ctx context.Context, memberID int64, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE member_id = $1 AND status = 'active' AND id <> $2
		)`, memberID, exclude).Scan(&exists)
	return exists, err
}

func (t *pgTx) HasOverlap(ctx context.Context, memberID int64, planID, exclude uuid.UUID, start time.Time) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE member_id = $1 AND plan_id = $2 AND status = 'active'
			  AND id <> $3 AND end_date >= $4
		)`, memberID, planID, exclude, start).Scan(&exists)
	return exists, err
}

func (t *pgTx) InsertSubscription(ctx context.Context, s Subscription) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO subscriptions (id, member_id, plan_id, start_date, end_date, status, is_renewal,
			signed_by_member, signature_file, member_snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.MemberID, s.PlanID, s.StartDate, s.EndDate, string(s.Status), s.IsRenewal,
		s.SignedByMember, s.SignatureFile, s.MemberSnapshot, s.CreatedAt, s.UpdatedAt)
	return mapWriteError(err)
}

func (t *pgTx) UpdateSubscription(ctx context.Context, s Subscription) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE subscriptions SET
			plan_id = $2, start_date = $3, end_date = $4, status = $5, is_renewal = $6,
			signed_by_member = $7, signature_file = $8, updated_at = $9
		WHERE id = $1`,
		s.ID, s.PlanID, s.StartDate, s.EndDate, string(s.Status), s.IsRenewal,
		s.SignedByMember, s.SignatureFile, s.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (t *pgTx) InsertHistory(ctx context.Context, h HistoryEntry) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO subscription_history (id, subscription_id, snapshot, member_snapshot, note, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		h.ID, h.SubscriptionID, h.Snapshot, h.MemberSnapshot, h.Note, h.ChangedBy, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (t *pgTx) InsertPlanChange(ctx context.Context, c PlanChange) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO subscription_plan_changes (id, subscription_id, old_plan_id, new_plan_id, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.SubscriptionID, c.OldPlanID, c.NewPlanID, c.ChangedBy, c.ChangedAt)
	if err != nil {
		return fmt.Errorf("insert plan change: %w", err)
	}
	return nil
}

// Outbox runs fn in a savepoint so a failed enqueue leaves the business
// transaction intact.
func (t *pgTx) Outbox(ctx context.Context, fn func(repo queue.EnqueuerRepository) error) error {
	return pg.WithSavepoint(ctx, t.tx, func(sp pgx.Tx) error {
		return fn(queue.NewPostgresStorage(sp, t.clock))
	})
}

func mapWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case pg.IsDuplicateKeyError(err) && pg.ConstraintName(err) == oneActiveIndex:
		return errors.Join(ErrActiveSubscriptionExists, err)
	default:
		return fmt.Errorf("write subscription: %w", err)
	}
}

func scanSubscription(row pgx.Row) (Subscription, error) {
	var (
		s      Subscription
		status string
	)
	err := row.Scan(&s.ID, &s.MemberID, &s.PlanID, &s.StartDate, &s.EndDate, &status, &s.IsRenewal,
		&s.SignedByMember, &s.SignatureFile, &s.MemberSnapshot, &s.CreatedAt, &s.UpdatedAt)
	s.Status = Status(status)
	return s, err
}
