package store

import (
	"errors"
	"fmt"
)

// Op names the Data Access Layer operation that failed.
type Op string

const (
	OpSelect  Op = "select"
	OpUpdate  Op = "update"
	OpFoundIn Op = "found_in"
)

// StorageError wraps any failure from the underlying database: open,
// execute, fetch or commit. The driver's diagnostic is preserved in Err.
type StorageError struct {
	Op        Op
	Path      string
	Statement string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s on %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError returns true if err is or wraps a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
