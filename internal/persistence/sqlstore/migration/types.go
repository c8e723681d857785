package migration

import "time"

// Migration is one versioned schema change read from an embedded directory.
type Migration struct {
	Version     int
	Description string
	SQL         string
	Path        string
	Checksum    string
}

// Applied describes a migration recorded in schema_migrations.
type Applied struct {
	Version       int
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status summarises what has run and what is still pending.
type Status struct {
	CurrentVersion int
	Applied        []Applied
	Pending        []Migration
}
