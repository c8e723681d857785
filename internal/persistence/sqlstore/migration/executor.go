package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const versionTableDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL,
	checksum TEXT NOT NULL,
	execution_time_ms INTEGER NOT NULL
)`

type executor struct {
	db     *sql.DB
	rebind func(string) string
	now    func() time.Time
}

func (e executor) initVersionTable(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, versionTableDDL); err != nil {
		return newError(0, "schema_migrations", "create version table", err)
	}
	return nil
}

// apply runs all statements of m and records it in one transaction.
func (e executor) apply(ctx context.Context, m Migration) (err error) {
	started := e.now()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return newError(m.Version, m.Path, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
		}
	}()

	for i, stmt := range splitStatements(m.SQL) {
		if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
			err = newError(m.Version, m.Path, fmt.Sprintf("statement %d", i+1),
				fmt.Errorf("%w: %v", ErrFailed, execErr))
			return err
		}
	}

	elapsed := e.now().Sub(started)
	record := e.rebind(`INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`)
	if _, err = tx.ExecContext(ctx, record, m.Version, e.now().UTC().Format(time.RFC3339Nano), m.Checksum, elapsed.Milliseconds()); err != nil {
		err = newError(m.Version, m.Path, "record migration", err)
		return err
	}

	if err = tx.Commit(); err != nil {
		err = newError(m.Version, m.Path, "commit", err)
		return err
	}
	return nil
}

func (e executor) applied(ctx context.Context) ([]Applied, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT version, applied_at, checksum, execution_time_ms FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, newError(0, "schema_migrations", "list applied", err)
	}
	defer rows.Close()

	var out []Applied
	for rows.Next() {
		var (
			a         Applied
			appliedAt string
			elapsedMS int64
		)
		if err := rows.Scan(&a.Version, &appliedAt, &a.Checksum, &elapsedMS); err != nil {
			return nil, newError(0, "schema_migrations", "scan applied", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, appliedAt); parseErr == nil {
			a.AppliedAt = ts
		}
		a.ExecutionTime = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(0, "schema_migrations", "iterate applied", err)
	}
	return out, nil
}
