// Package pg bootstraps PostgreSQL access on top of pgx/v5.
//
// Connect opens a *pgxpool.Pool from an env-tagged Config and waits for the
// database with a bounded retry loop. Migrate applies goose migrations from an
// fs.FS, usually the embed.FS exported by internal/db. WithTx and
// WithSavepoint wrap the commit/rollback dance so stores can express a unit of
// work as a closure:
//
//	err := pg.WithTx(ctx, pool, func(tx pgx.Tx) error {
//		if _, err := tx.Exec(ctx, `UPDATE ...`); err != nil {
//			return err
//		}
//		return pg.WithSavepoint(ctx, tx, func(sp pgx.Tx) error {
//			_, err := sp.Exec(ctx, `INSERT INTO outbox ...`)
//			return err // rolls back the savepoint only
//		})
//	})
//
// The Is*Error helpers classify pgx/pgconn errors (no rows, unique, foreign
// key and check violations) so callers can map them to domain errors.
package pg
