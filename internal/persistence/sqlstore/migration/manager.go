package migration

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
)

// Manager scans a migration source and applies what is pending.
type Manager struct {
	scanner  *Scanner
	executor *Executor
	source   fs.FS
	dir      string
	logger   *slog.Logger
}

// NewManager wires a manager for the .sql files in dir of source.
func NewManager(executor *Executor, source fs.FS, dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		scanner:  NewScanner(),
		executor: executor,
		source:   source,
		dir:      dir,
		logger:   logger.With("component", "migration"),
	}
}

// Run applies every pending migration in version order and returns how many
// were applied. It stops at the first failure.
func (m *Manager) Run(ctx context.Context) (int, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return 0, err
	}

	m.logger.InfoContext(ctx, "schema status",
		"current_version", status.CurrentVersion,
		"pending", len(status.Pending),
	)

	for i, mig := range status.Pending {
		elapsed, err := m.executor.Apply(ctx, mig)
		if err != nil {
			m.logger.ErrorContext(ctx, "migration failed",
				"version", mig.Version,
				"file", mig.FilePath,
				"error", err,
			)
			return i, NewMigrationError(mig.Version, mig.FilePath, "execute migration",
				fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}
		m.logger.InfoContext(ctx, "migration applied",
			"version", mig.Version,
			"description", mig.Description,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
	return len(status.Pending), nil
}

// Status compares the source against schema_migrations. An applied file whose
// checksum changed is reported as ErrChecksumMismatch.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}
	available, err := m.scanner.Scan(m.source, m.dir)
	if err != nil {
		return Status{}, err
	}
	applied, err := m.executor.AppliedVersions(ctx)
	if err != nil {
		return Status{}, err
	}

	byVersion := make(map[string]AppliedMigration, len(applied))
	for _, a := range applied {
		byVersion[a.Version] = a
	}

	status := Status{Applied: applied}
	for _, mig := range available {
		a, ok := byVersion[mig.Version]
		if !ok {
			status.Pending = append(status.Pending, mig)
			continue
		}
		if a.Checksum != "" && a.Checksum != mig.Checksum {
			return Status{}, NewMigrationError(mig.Version, mig.FilePath, "verify checksum", ErrChecksumMismatch)
		}
		status.CurrentVersion = mig.Version
	}
	return status, nil
}
