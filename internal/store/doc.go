// Package store is the bot's only path to persisted state: a schema-agnostic
// helper over a file-backed SQLite database.
//
// Callers supply complete statement text and positional parameters. Every
// call is a scoped acquisition: the database is opened, configured,
// used and closed within the call, on every return path. There is no
// shared connection and no cross-call transaction state, so concurrent
// calls from different handlers need no external locking.
//
// # Result Normalization
//
// Single-column reads go through normalizeScalar, which carries the legacy
// conventions of the original data files:
//   - text that parses as an int64 becomes an integer; wider digit
//     strings stay text
//   - the literal text "None" (and SQL NULL) becomes nothing
//   - REAL values are truncated to integers; those outside the int64
//     range become their exact decimal text instead
//
// WithoutLegacyCoercion turns all three off in one place.
//
// # Chunked Reads
//
// Chunked selects flatten every row and regroup the values into windows
// whose width is the number of top-level items in the statement's column
// list (see ColumnCount). The width comes from the statement text, not the
// result shape; callers keep the two consistent.
//
// # Database Configuration
//
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Failures from the driver surface as *StorageError and are never retried.
package store
