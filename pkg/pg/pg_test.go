package pg_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymcrm/pkg/pg"
)

// fakeTx implements the parts of pgx.Tx WithTx touches; any other method
// panics through the nil embedded interface.
type fakeTx struct {
	pgx.Tx
	mock.Mock
}

func (f *fakeTx) Commit(ctx context.Context) error   { return f.Called().Error(0) }
func (f *fakeTx) Rollback(ctx context.Context) error { return f.Called().Error(0) }

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (b fakeBeginner) Begin(context.Context) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithTx(t *testing.T) {
	t.Parallel()

	t.Run("commits on success", func(t *testing.T) {
		t.Parallel()
		tx := &fakeTx{}
		tx.On("Commit").Return(nil).Once()

		err := pg.WithTx(context.Background(), fakeBeginner{tx: tx}, func(pgx.Tx) error { return nil })
		require.NoError(t, err)
		tx.AssertExpectations(t)
		tx.AssertNotCalled(t, "Rollback")
	})

	t.Run("rolls back and returns fn error as is", func(t *testing.T) {
		t.Parallel()
		tx := &fakeTx{}
		tx.On("Rollback").Return(nil).Once()
		domainErr := errors.New("conflict")

		err := pg.WithTx(context.Background(), fakeBeginner{tx: tx}, func(pgx.Tx) error { return domainErr })
		assert.Same(t, domainErr, err)
		tx.AssertExpectations(t)
		tx.AssertNotCalled(t, "Commit")
	})

	t.Run("commit failure", func(t *testing.T) {
		t.Parallel()
		tx := &fakeTx{}
		tx.On("Commit").Return(errors.New("serialization failure")).Once()
		tx.On("Rollback").Return(nil).Once()

		err := pg.WithTx(context.Background(), fakeBeginner{tx: tx}, func(pgx.Tx) error { return nil })
		assert.ErrorIs(t, err, pg.ErrTxFailed)
		tx.AssertExpectations(t)
	})

	t.Run("begin failure", func(t *testing.T) {
		t.Parallel()
		err := pg.WithTx(context.Background(), fakeBeginner{err: errors.New("pool closed")}, func(pgx.Tx) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.ErrorIs(t, err, pg.ErrTxFailed)
	})

	t.Run("panic rolls back", func(t *testing.T) {
		t.Parallel()
		tx := &fakeTx{}
		tx.On("Rollback").Return(nil).Once()

		assert.Panics(t, func() {
			_ = pg.WithTx(context.Background(), fakeBeginner{tx: tx}, func(pgx.Tx) error { panic("boom") })
		})
		tx.AssertExpectations(t)
	})
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	unique := &pgconn.PgError{Code: "23505", ConstraintName: "subscriptions_one_active_per_member"}
	fk := &pgconn.PgError{Code: "23503"}
	check := &pgconn.PgError{Code: "23514"}
	wrapped := errors.Join(errors.New("insert subscription"), unique)

	assert.True(t, pg.IsDuplicateKeyError(wrapped))
	assert.Equal(t, "subscriptions_one_active_per_member", pg.ConstraintName(wrapped))
	assert.True(t, pg.IsForeignKeyViolationError(fk))
	assert.True(t, pg.IsCheckViolationError(check))
	assert.False(t, pg.IsDuplicateKeyError(fk))
	assert.False(t, pg.IsDuplicateKeyError(nil))
	assert.True(t, pg.IsNotFoundError(errors.Join(errors.New("get"), pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(nil))
	assert.Empty(t, pg.ConstraintName(errors.New("plain")))
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	ok := pg.Healthcheck(pingerFunc(func(context.Context) error { return nil }))
	require.NoError(t, ok(context.Background()))

	bad := pg.Healthcheck(pingerFunc(func(context.Context) error { return errors.New("down") }))
	assert.ErrorIs(t, bad(context.Background()), pg.ErrHealthcheckFailed)
}

func TestConnect_EmptyConnectionString(t *testing.T) {
	t.Parallel()
	_, err := pg.Connect(context.Background(), pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)
}
