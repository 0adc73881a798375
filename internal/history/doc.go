// Package history persists a record of every burn run and its per-track
// job outcomes in a SQLite database under log_dir.
//
// The store is append-only: the pipeline writes one run plus its jobs in a
// single transaction when the run ends, and "burnaudio history" reads the
// most recent runs back.
package history
