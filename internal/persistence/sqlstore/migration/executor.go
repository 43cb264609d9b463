package migration

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const versionTable = "schema_migrations"

// Executor runs migrations against a database and maintains schema_migrations.
type Executor struct {
	db *sql.DB
	sb sq.StatementBuilderType
	// now is overridable in tests.
	now func() time.Time
}

// NewExecutor builds an executor. sb carries the driver's placeholder format.
func NewExecutor(db *sql.DB, sb sq.StatementBuilderType) *Executor {
	return &Executor{db: db, sb: sb, now: time.Now}
}

// InitializeVersionTable creates schema_migrations if it does not exist.
func (e *Executor) InitializeVersionTable(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL,
		checksum TEXT NOT NULL DEFAULT '',
		execution_time_ms INTEGER NOT NULL DEFAULT 0
	)`
	if _, err := e.db.ExecContext(ctx, ddl); err != nil {
		return NewDatabaseError("", "create "+versionTable+" table", err)
	}
	return nil
}

// Apply executes every statement of m and records it, all in one transaction.
func (e *Executor) Apply(ctx context.Context, m Migration) (time.Duration, error) {
	started := e.now()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, NewDatabaseError(m.Version, "begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range Statements(m.SQL) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, NewDatabaseError(m.Version, "execute statement", err)
		}
	}

	elapsed := e.now().Sub(started)
	query, args, err := e.sb.Insert(versionTable).
		Columns("version", "applied_at", "checksum", "execution_time_ms").
		Values(m.Version, e.now().UTC().Format(time.RFC3339), m.Checksum, elapsed.Milliseconds()).
		ToSql()
	if err != nil {
		return 0, NewDatabaseError(m.Version, "build record statement", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, NewDatabaseError(m.Version, "record migration", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, NewDatabaseError(m.Version, "commit transaction", err)
	}
	return elapsed, nil
}

// AppliedVersions lists applied migrations ordered by version.
func (e *Executor) AppliedVersions(ctx context.Context) ([]AppliedMigration, error) {
	query, args, err := e.sb.
		Select("version", "applied_at", "checksum", "execution_time_ms").
		From(versionTable).
		OrderBy("version ASC").
		ToSql()
	if err != nil {
		return nil, NewDatabaseError("", "build applied query", err)
	}

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewDatabaseError("", "get applied versions", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			a         AppliedMigration
			appliedAt string
			ms        int64
		)
		if err := rows.Scan(&a.Version, &appliedAt, &a.Checksum, &ms); err != nil {
			return nil, NewDatabaseError("", "scan applied migration", err)
		}
		if a.AppliedAt, err = time.Parse(time.RFC3339, appliedAt); err != nil {
			return nil, NewDatabaseError(a.Version, "parse applied_at", err)
		}
		a.ExecutionTime = time.Duration(ms) * time.Millisecond
		applied = append(applied, a)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, NewDatabaseError("", "iterate applied migrations", err)
	}
	return applied, nil
}
