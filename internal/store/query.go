package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Query describes one call into the store. It is built per call and not retained.
type Query struct {
	// Path overrides the Store's default database when non-empty.
	Path string

	// Statement is complete SQL text with ? placeholders.
	Statement string

	// Params are bound positionally.
	Params []any

	// Chunked selects every row and regroups values by ColumnCount(Statement).
	Chunked bool
}

// Select executes a read and shapes the result.
//
// Non-chunked: only the first row is fetched. No row is Nothing; a single
// column goes through legacy normalization; several columns become a Row
// with native values.
//
// Chunked: all rows are flattened row-major and regrouped. No rows is Nothing.
func (s *Store) Select(ctx context.Context, q Query) (res Result, err error) {
	path := s.resolve(q.Path)
	defer func() {
		if err != nil {
			err = &StorageError{Op: OpSelect, Path: path, Statement: q.Statement, Err: err}
		}
	}()

	db, err := s.open(ctx, path)
	if err != nil {
		return Nothing, err
	}
	defer db.Close()

	s.logger.Debug("store select", "path", path, "statement", q.Statement, "chunked", q.Chunked)

	rows, err := db.QueryContext(ctx, q.Statement, q.Params...)
	if err != nil {
		return Nothing, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Nothing, fmt.Errorf("columns: %w", err)
	}

	if q.Chunked {
		return s.selectChunked(rows, len(cols), ColumnCount(q.Statement))
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Nothing, fmt.Errorf("fetch: %w", err)
		}
		return Nothing, nil
	}

	values, err := scanRow(rows, len(cols))
	if err != nil {
		return Nothing, err
	}

	if len(values) == 1 {
		return s.single(values[0]), nil
	}
	return Result{Kind: KindRow, Row: values}, nil
}

func (s *Store) selectChunked(rows *sql.Rows, ncols, width int) (Result, error) {
	var flat []any
	for rows.Next() {
		values, err := scanRow(rows, ncols)
		if err != nil {
			return Nothing, err
		}
		flat = append(flat, values...)
	}
	if err := rows.Err(); err != nil {
		return Nothing, fmt.Errorf("fetch: %w", err)
	}
	if len(flat) == 0 {
		return Nothing, nil
	}
	return Result{Kind: KindChunks, Chunks: chunk(flat, width)}, nil
}

func (s *Store) single(v any) Result {
	if !s.coerce {
		v = nativeValue(v)
		if v == nil {
			return Nothing
		}
		return Result{Kind: KindScalar, Scalar: v}
	}
	v, ok := normalizeScalar(v)
	if !ok {
		return Nothing
	}
	return Result{Kind: KindScalar, Scalar: v}
}

func scanRow(rows *sql.Rows, ncols int) ([]any, error) {
	values := make([]any, ncols)
	ptrs := make([]any, ncols)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	for i, v := range values {
		values[i] = nativeValue(v)
	}
	return values, nil
}

// Update executes a write and commits it. The connection is released on
// every path; a failing statement rolls back and its error propagates.
func (s *Store) Update(ctx context.Context, q Query) (err error) {
	path := s.resolve(q.Path)
	defer func() {
		if err != nil {
			err = &StorageError{Op: OpUpdate, Path: path, Statement: q.Statement, Err: err}
		}
	}()

	db, err := s.open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	s.logger.Debug("store update", "path", path, "statement", q.Statement)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	if _, err := tx.ExecContext(ctx, q.Statement, q.Params...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FoundIn reports whether the statement yields at least one row.
// Row content is not inspected.
func (s *Store) FoundIn(ctx context.Context, q Query) (found bool, err error) {
	path := s.resolve(q.Path)
	defer func() {
		if err != nil {
			err = &StorageError{Op: OpFoundIn, Path: path, Statement: q.Statement, Err: err}
		}
	}()

	db, err := s.open(ctx, path)
	if err != nil {
		return false, err
	}
	defer db.Close()

	s.logger.Debug("store found_in", "path", path, "statement", q.Statement)

	rows, err := db.QueryContext(ctx, q.Statement, q.Params...)
	if err != nil {
		return false, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		return true, nil
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("fetch: %w", err)
	}
	return false, nil
}
