// Package migration applies versioned SQL files embedded in the binary.
//
// Files are named {version}_{description}.sql. Each file runs inside its own
// transaction together with the schema_migrations row that records it, so a
// failed file leaves no trace and is retried on the next start. A file that
// changes after being applied is reported through ErrChecksumMismatch.
package migration
