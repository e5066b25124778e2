package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// createTestStore returns a Store whose default database lives in a temp dir.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "test.db"), opts...)
}

// seed runs each statement through Update.
func seed(t *testing.T, s *Store, statements ...string) {
	t.Helper()
	for _, stmt := range statements {
		require.NoError(t, s.Update(context.Background(), Query{Statement: stmt}), stmt)
	}
}
