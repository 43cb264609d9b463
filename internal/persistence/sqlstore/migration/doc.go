// Package migration applies versioned SQL files to a database and records
// them in a schema_migrations table.
//
// Files are named {version}_{description}.sql, where version is numeric and
// decides the execution order. A "-- Description:" comment line at the top of
// the file overrides the description taken from the file name. Each file runs
// in its own transaction; the checksum of every applied file is stored so a
// later edit of an already applied migration is detected.
package migration
