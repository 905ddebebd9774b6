package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_GetMissingReturnsNil(t *testing.T) {
	s := openTemp(t)
	v, err := s.Get(context.Background(), "venues")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSQLite_SetManyThenGet(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.SetMany(ctx, map[string][]byte{
		"venues":  []byte(`[{"id":"a"}]`),
		"entries": []byte(`[]`),
	}))

	v, err := s.Get(ctx, "venues")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a"}]`, string(v))

	require.NoError(t, s.SetMany(ctx, map[string][]byte{"venues": []byte(`[]`)}))
	v, err = s.Get(ctx, "venues")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(v))

	ts, err := s.UpdatedAt(ctx, "venues")
	require.NoError(t, err)
	assert.False(t, ts.IsZero())
}

func TestSQLite_ReopenKeepsDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetMany(ctx, map[string][]byte{"budgets": []byte(`{"weekly":"10"}`)}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	v, err := s.Get(ctx, "budgets")
	require.NoError(t, err)
	assert.JSONEq(t, `{"weekly":"10"}`, string(v))
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.SetMany(ctx, map[string][]byte{"k": []byte("abc")}))

	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	v[0] = 'x'

	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestSQLite_UpdateReadsCurrentAndWritesResult(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.SetMany(ctx, map[string][]byte{"entries": []byte(`["a"]`)}))

	err := s.Update(ctx, []string{"entries", "venues"}, func(cur map[string][]byte) (map[string][]byte, error) {
		assert.Equal(t, `["a"]`, string(cur["entries"]))
		_, ok := cur["venues"]
		assert.False(t, ok, "absent keys are omitted")
		return map[string][]byte{"entries": []byte(`["a","b"]`)}, nil
	})
	require.NoError(t, err)

	v, err := s.Get(ctx, "entries")
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, string(v))
}

func TestSQLite_UpdateErrorRollsBack(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.SetMany(ctx, map[string][]byte{"entries": []byte(`[]`)}))

	boom := errors.New("rejected")
	err := s.Update(ctx, []string{"entries"}, func(map[string][]byte) (map[string][]byte, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	// The write lock must have been released.
	require.NoError(t, s.Update(ctx, []string{"entries"}, func(map[string][]byte) (map[string][]byte, error) {
		return nil, nil
	}))
	v, err := s.Get(ctx, "entries")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(v))
}

func TestSQLite_UpdateSerializesAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()
	first, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = first.Close() }()
	second, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	// second commits between first's read and first's write would be lost;
	// the write lock makes second wait until first commits.
	started := make(chan struct{})
	done := make(chan error, 1)
	err = first.Update(ctx, []string{"n"}, func(cur map[string][]byte) (map[string][]byte, error) {
		go func() {
			close(started)
			done <- second.Update(ctx, []string{"n"}, func(cur map[string][]byte) (map[string][]byte, error) {
				return map[string][]byte{"n": append(cur["n"], '2')}, nil
			})
		}()
		<-started
		return map[string][]byte{"n": append(cur["n"], '1')}, nil
	})
	require.NoError(t, err)
	require.NoError(t, <-done)

	v, err := first.Get(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, "12", string(v))
}

func TestMemory_UpdateHonoursFailWrites(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.FailWrites = errors.New("disk full")

	err := m.Update(ctx, []string{"k"}, func(map[string][]byte) (map[string][]byte, error) {
		return map[string][]byte{"k": []byte("v")}, nil
	})
	require.ErrorIs(t, err, m.FailWrites)

	got, err := m.GetMany(ctx, []string{"k"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
