package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath is the conventional database file used when a Query names no path.
const DefaultPath = "data.db"

// Store executes queries against file-backed SQLite databases.
//
// A Store holds no connection. It only remembers which file to use when a
// query does not name one, and how results are normalized.
//
// Thread-safety: Store is immutable after construction and safe for
// concurrent use.
type Store struct {
	defaultPath string
	coerce      bool
	logger      *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithoutLegacyCoercion disables numeric parsing and "None" normalization of
// single-column results. Values are returned as the driver produced them.
func WithoutLegacyCoercion() Option {
	return func(s *Store) {
		s.coerce = false
	}
}

// WithLogger sets the logger used for debug tracing of statements.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates a Store whose default database is defaultPath.
// An empty defaultPath means DefaultPath.
func New(defaultPath string, opts ...Option) *Store {
	if defaultPath == "" {
		defaultPath = DefaultPath
	}
	s := &Store{
		defaultPath: defaultPath,
		coerce:      true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultPath returns the database used when a Query leaves Path empty.
func (s *Store) DefaultPath() string {
	return s.defaultPath
}

func (s *Store) resolve(path string) string {
	if path == "" {
		return s.defaultPath
	}
	return path
}

// open creates a dedicated handle for a single call.
// The caller must Close it on every path.
func (s *Store) open(ctx context.Context, path string) (*sql.DB, error) {
	// Open database (creates file if doesn't exist). Writes take the
	// reserved lock at BEGIN so concurrent callers wait on busy_timeout
	// instead of failing a lock upgrade.
	db, err := sql.Open("sqlite3", path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection so the pragmas below apply to every statement
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return db, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
