package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrMigrationFailed indicates that a migration execution failed.
	ErrMigrationFailed = errors.New("migration execution failed")
	// ErrInvalidMigrationFile indicates that a migration file is malformed.
	ErrInvalidMigrationFile = errors.New("invalid migration file format")
	// ErrInvalidVersion indicates that a migration version is not numeric.
	ErrInvalidVersion = errors.New("invalid migration version")
	// ErrDuplicateVersion indicates that two files share a version.
	ErrDuplicateVersion = errors.New("duplicate migration version")
	// ErrChecksumMismatch indicates that an applied file was edited afterwards.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
)

// MigrationError wraps a failure with the migration it belongs to.
type MigrationError struct {
	Version   string
	FilePath  string
	Operation string
	Err       error
}

func (e *MigrationError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("migration %s (%s): %s: %v", e.Version, e.FilePath, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration error (%s): %s: %v", e.FilePath, e.Operation, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// NewMigrationError creates a new MigrationError with context.
func NewMigrationError(version, filePath, operation string, err error) *MigrationError {
	return &MigrationError{Version: version, FilePath: filePath, Operation: operation, Err: err}
}

// DatabaseError wraps driver errors raised while migrating.
type DatabaseError struct {
	Version   string
	Operation string
	Err       error
}

func (e *DatabaseError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("database error in migration %s during %s: %v", e.Version, e.Operation, e.Err)
	}
	return fmt.Sprintf("database error during %s: %v", e.Operation, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// NewDatabaseError creates a new DatabaseError.
func NewDatabaseError(version, operation string, err error) *DatabaseError {
	return &DatabaseError{Version: version, Operation: operation, Err: err}
}
