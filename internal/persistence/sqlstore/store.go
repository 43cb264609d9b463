// Package sqlstore implements the persistence repositories on database/sql.
// SQLite (modernc.org/sqlite) is the default driver; PostgreSQL (lib/pq) is
// selected with Driver "postgres". Queries are built with squirrel so the
// placeholder style follows the driver.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/example/salon-scheduler/internal/persistence/sqlstore/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config describes how to open the store.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration
}

// Store owns the connection pool and the statement builder shared by repositories.
type Store struct {
	db     *sql.DB
	driver string
	sb     sq.StatementBuilderType
	now    func() time.Time
}

// Open connects and verifies the database.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverSQLite
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlstore: dsn is required")
	}

	var placeholder sq.PlaceholderFormat
	switch driver {
	case DriverSQLite:
		placeholder = sq.Question
	case DriverPostgres:
		placeholder = sq.Dollar
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}

	dsn := cfg.DSN
	if driver == DriverSQLite {
		dsn = sqliteDSN(cfg)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}

	if driver == DriverSQLite && isMemoryDSN(cfg.DSN) {
		// Every new connection would see a fresh empty database.
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	s := &Store{
		db:     db,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:    time.Now,
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		if err := s.configureSQLite(ctx, cfg); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

// sqliteDSN appends per-connection pragmas; the driver applies them to every
// connection it opens, not only the first.
func sqliteDSN(cfg Config) string {
	params := []string{"_pragma=foreign_keys(1)"}
	if cfg.BusyTimeout > 0 {
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	}
	sep := "?"
	if strings.Contains(cfg.DSN, "?") {
		sep = "&"
	}
	return cfg.DSN + sep + strings.Join(params, "&")
}

func (s *Store) configureSQLite(ctx context.Context, cfg Config) error {
	if isMemoryDSN(cfg.DSN) {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		return fmt.Errorf("sqlstore: enable WAL: %w", err)
	}
	return nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// SetClock replaces the time source used for created and updated stamps.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Driver reports the configured driver name.
func (s *Store) Driver() string { return s.driver }

// DB exposes the pool for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context, logger *slog.Logger) (int, error) {
	return s.migrator(logger).Run(ctx)
}

// MigrationStatus reports applied and pending embedded migrations.
func (s *Store) MigrationStatus(ctx context.Context) (migration.Status, error) {
	return s.migrator(nil).Status(ctx)
}

func (s *Store) migrator(logger *slog.Logger) *migration.Manager {
	return migration.NewManager(migration.NewExecutor(s.db, s.sb), migrationFiles, "migrations", logger)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTransaction runs fn in a transaction, rolling back when fn fails or panics.
func (s *Store) withTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit transaction: %w", err)
	}
	return nil
}

// exec builds and runs a write statement, mapping driver errors.
func (s *Store) exec(ctx context.Context, q execer, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: build statement: %w", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return res, nil
}

// execOne is exec that reports ErrNotFound when no row was touched.
func (s *Store) execOne(ctx context.Context, q execer, b sq.Sqlizer) error {
	res, err := s.exec(ctx, q, b)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) query(ctx context.Context, q execer, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: build query: %w", err)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (s *Store) queryRow(ctx context.Context, q execer, b sq.Sqlizer) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: build query: %w", err)
	}
	return q.QueryRowContext(ctx, query, args...), nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}
