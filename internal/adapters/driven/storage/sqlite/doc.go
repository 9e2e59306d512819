// Package sqlite provides a SQLite-based implementation of the run store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// A run is one row in runs; its records are rows in run_records holding the
// JSON-encoded record, ordered by position.
//
// # Data Location
//
// By default, the database is stored at ~/.bioqa/data/runs.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
