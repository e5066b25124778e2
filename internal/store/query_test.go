package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s := createTestStore(t, opts...)
	seed(t, s,
		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, score TEXT, note TEXT)",
		"INSERT INTO users VALUES (1, 'ada', '42', 'None')",
		"INSERT INTO users VALUES (2, 'bob', 'high', NULL)",
		"INSERT INTO users VALUES (3, 'cy', ' 7 ', 'x')",
	)
	return s
}

func TestSelect_NoRow(t *testing.T) {
	s := usersStore(t)

	res, err := s.Select(context.Background(), Query{
		Statement: "SELECT name FROM users WHERE id = ?",
		Params:    []any{99},
	})
	require.NoError(t, err)
	assert.True(t, res.IsNothing())
}

func TestSelect_SingleColumnCoercion(t *testing.T) {
	s := usersStore(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		statement string
		want      Result
	}{
		{"numeric text", "SELECT score FROM users WHERE id = 1", Result{Kind: KindScalar, Scalar: int64(42)}},
		{"padded numeric text", "SELECT score FROM users WHERE id = 3", Result{Kind: KindScalar, Scalar: int64(7)}},
		{"plain text", "SELECT score FROM users WHERE id = 2", Result{Kind: KindScalar, Scalar: "high"}},
		{"None text", "SELECT note FROM users WHERE id = 1", Nothing},
		{"NULL", "SELECT note FROM users WHERE id = 2", Nothing},
		{"integer column", "SELECT id FROM users WHERE id = 3", Result{Kind: KindScalar, Scalar: int64(3)}},
		{"real truncated", "SELECT 2.9", Result{Kind: KindScalar, Scalar: int64(2)}},
		{"real beyond int64", "SELECT 1e20", Result{Kind: KindScalar, Scalar: "100000000000000000000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Select(ctx, Query{Statement: tt.statement})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
		})
	}
}

func TestSelect_WithoutLegacyCoercion(t *testing.T) {
	s := usersStore(t, WithoutLegacyCoercion())
	ctx := context.Background()

	res, err := s.Select(ctx, Query{Statement: "SELECT score FROM users WHERE id = 1"})
	require.NoError(t, err)
	assert.Equal(t, Result{Kind: KindScalar, Scalar: "42"}, res)

	res, err = s.Select(ctx, Query{Statement: "SELECT note FROM users WHERE id = 1"})
	require.NoError(t, err)
	assert.Equal(t, Result{Kind: KindScalar, Scalar: "None"}, res)
}

func TestSelect_MultiColumnRowKeepsNativeValues(t *testing.T) {
	s := usersStore(t)

	res, err := s.Select(context.Background(), Query{
		Statement: "SELECT id, score, note FROM users WHERE id = ?",
		Params:    []any{1},
	})
	require.NoError(t, err)

	require.Equal(t, KindRow, res.Kind)
	assert.Equal(t, []any{int64(1), "42", "None"}, res.Row)
}

func TestSelect_FirstRowOnly(t *testing.T) {
	s := usersStore(t)

	res, err := s.Select(context.Background(), Query{Statement: "SELECT name FROM users ORDER BY id"})
	require.NoError(t, err)
	assert.Equal(t, Result{Kind: KindScalar, Scalar: "ada"}, res)
}

func TestSelect_Chunked(t *testing.T) {
	s := createTestStore(t)
	seed(t, s,
		"CREATE TABLE t (a INTEGER, b TEXT, c INTEGER)",
		"INSERT INTO t VALUES (1, 'x', 10)",
		"INSERT INTO t VALUES (2, 'y', 20)",
	)

	res, err := s.Select(context.Background(), Query{
		Statement: "SELECT a, b, c FROM t ORDER BY a",
		Chunked:   true,
	})
	require.NoError(t, err)

	require.Equal(t, KindChunks, res.Kind)
	assert.Equal(t, [][]any{
		{int64(1), "x", int64(10)},
		{int64(2), "y", int64(20)},
	}, res.Chunks)
}

func TestSelect_ChunkedWidthComesFromStatement(t *testing.T) {
	s := createTestStore(t)
	seed(t, s,
		"CREATE TABLE t (a INTEGER)",
		"INSERT INTO t VALUES (1), (2), (3), (4), (5)",
	)

	// Two listed items but the same column twice: width follows the text.
	res, err := s.Select(context.Background(), Query{
		Statement: "SELECT a, a * 10 FROM t WHERE a <= 2 ORDER BY a",
		Chunked:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(1), int64(10)}, {int64(2), int64(20)}}, res.Chunks)
}

func TestSelect_ChunkedNoRows(t *testing.T) {
	s := usersStore(t)

	res, err := s.Select(context.Background(), Query{
		Statement: "SELECT id, name FROM users WHERE id > 100",
		Chunked:   true,
	})
	require.NoError(t, err)
	assert.True(t, res.IsNothing())
}

func TestSelect_MalformedStatement(t *testing.T) {
	s := usersStore(t)

	_, err := s.Select(context.Background(), Query{Statement: "SELEC name FROM users"})
	require.Error(t, err)

	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, OpSelect, se.Op)
	assert.Equal(t, "SELEC name FROM users", se.Statement)
	assert.Contains(t, err.Error(), "syntax error")
}

func TestUpdate_CommitsAndIsVisibleToNextCall(t *testing.T) {
	s := usersStore(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, Query{
		Statement: "UPDATE users SET name = ? WHERE id = ?",
		Params:    []any{"ada lovelace", 1},
	}))

	res, err := s.Select(ctx, Query{Statement: "SELECT name FROM users WHERE id = 1"})
	require.NoError(t, err)
	assert.Equal(t, Result{Kind: KindScalar, Scalar: "ada lovelace"}, res)
}

func TestUpdate_ConstraintViolation(t *testing.T) {
	s := usersStore(t)

	err := s.Update(context.Background(), Query{
		Statement: "INSERT INTO users (id, name) VALUES (1, 'dup')",
	})
	require.Error(t, err)

	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, OpUpdate, se.Op)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}

func TestFoundIn(t *testing.T) {
	s := usersStore(t)
	ctx := context.Background()

	found, err := s.FoundIn(ctx, Query{Statement: "SELECT 1 FROM users WHERE name = ?", Params: []any{"bob"}})
	require.NoError(t, err)
	assert.True(t, found)

	found, err = s.FoundIn(ctx, Query{Statement: "SELECT 1 FROM users WHERE name = ?", Params: []any{"zed"}})
	require.NoError(t, err)
	assert.False(t, found)

	// Content is irrelevant: a NULL row still counts.
	found, err = s.FoundIn(ctx, Query{Statement: "SELECT note FROM users WHERE id = 2"})
	require.NoError(t, err)
	assert.True(t, found)
}

func TestFoundIn_Error(t *testing.T) {
	s := usersStore(t)

	_, err := s.FoundIn(context.Background(), Query{Statement: "SELECT * FROM missing_table"})
	require.Error(t, err)
	assert.True(t, IsStorageError(err))
	assert.Contains(t, err.Error(), "no such table")
}

func TestConcurrentCallsAreIndependent(t *testing.T) {
	s := createTestStore(t)
	seed(t, s, "CREATE TABLE hits (n INTEGER)")
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs <- s.Update(ctx, Query{Statement: "INSERT INTO hits VALUES (?)", Params: []any{n}})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	res, err := s.Select(ctx, Query{Statement: "SELECT COUNT(*) FROM hits"})
	require.NoError(t, err)
	n, ok := res.Int()
	require.True(t, ok)
	assert.Equal(t, int64(10), n)
}
