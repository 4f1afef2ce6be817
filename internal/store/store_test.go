package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoviewer/internal/outline"
)

func openTest(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func module(filename string) outline.Module {
	return outline.Module{
		Filename: filename,
		Classes: []outline.Class{{
			Name: "Foo", Line: 1, EndLine: 4,
			Methods: []outline.Symbol{outline.NewMethod("bar", 2, 4)},
		}},
		Functions: []outline.Symbol{outline.NewFunction("baz", 6, 7)},
	}
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, ":memory:")

	_, ok, err := s.Get(ctx, "/r/a.py", "h1")
	require.NoError(t, err)
	assert.False(t, ok)

	m := module("/r/a.py")
	require.NoError(t, s.Put(ctx, "/r/a.py", "h1", "python", m))

	got, ok, err := s.Get(ctx, "/r/a.py", "h1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, m, got)

	_, ok, err = s.Get(ctx, "/r/a.py", "h2")
	require.NoError(t, err)
	assert.False(t, ok, "stale hash must miss")
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, ":memory:")

	require.NoError(t, s.Put(ctx, "/r/a.py", "h1", "python", module("/r/a.py")))
	updated := outline.Module{Filename: "/r/a.py", Classes: []outline.Class{}, Functions: []outline.Symbol{}}
	require.NoError(t, s.Put(ctx, "/r/a.py", "h2", "python", updated))

	got, ok, err := s.Get(ctx, "/r/a.py", "h2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, updated, got)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "outlines.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, "/r/a.py", "h1", "python", module("/r/a.py")))
	require.NoError(t, first.Close())

	second := openTest(t, path)
	got, ok, err := second.Get(ctx, "/r/a.py", "h1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, module("/r/a.py"), got)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, ":memory:")

	for _, p := range []string{"/r/a.py", "/r/b.py", "/r/sub/c.py", "/other/d.py"} {
		require.NoError(t, s.Put(ctx, p, "h", "python", module(p)))
	}

	n, err := s.Prune(ctx, "/r/", []string{"/r/a.py"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, ok, err := s.Get(ctx, "/r/b.py", "h")
	require.NoError(t, err)
	assert.False(t, ok, "pruned entry must not be served from memory")

	_, ok, err = s.Get(ctx, "/other/d.py", "h")
	require.NoError(t, err)
	assert.True(t, ok)
}
