package migration

import "time"

// Migration is one parsed migration file.
type Migration struct {
	Version     string
	Description string
	SQL         string
	FilePath    string
	Checksum    string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status summarises the migration state of a database.
type Status struct {
	CurrentVersion string
	Applied        []AppliedMigration
	Pending        []Migration
}
