package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing blob", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)

		ok, err := store.Exists(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("put and get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "blob", []byte("payload")))

		ok, err := store.Exists(ctx, "blob")
		require.NoError(t, err)
		assert.True(t, ok)

		data, err := store.Get(ctx, "blob")
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), data)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "blob", []byte("v2")))

		data, err := store.Get(ctx, "blob")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), data)
	})
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestMemoryIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	payload := []byte("payload")
	require.NoError(t, store.Put(ctx, "blob", payload))
	payload[0] = 'X'

	data, err := store.Get(ctx, "blob")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	data[1] = 'X'
	again, err := store.Get(ctx, "blob")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), again)
}

func TestLocal(t *testing.T) {
	testStore(t, NewLocal(t.TempDir()))
}

func TestLocalNestedName(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewLocal(root)

	require.NoError(t, store.Put(ctx, filepath.Join("nested", "dir", "blob"), []byte("x")))

	data, err := store.Get(ctx, filepath.Join("nested", "dir", "blob"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)

	// Put is atomic: no temp files left behind.
	entries, err := os.ReadDir(filepath.Join(root, "nested", "dir"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "blob", entries[0].Name())
}
