package nixstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurokit/nixstore/blobstore"
	"github.com/neurokit/nixstore/codec"
	"github.com/neurokit/nixstore/container"
)

func newTestHandle(blobs blobstore.Store) *fileHandle {
	return &fileHandle{
		name:        "test.nixs",
		blobs:       blobs,
		codec:       codec.Default,
		compression: container.CompressionNone,
	}
}

func TestHandleNestedAcquire(t *testing.T) {
	h := newTestHandle(blobstore.NewMemory())

	f1, release1, err := h.acquire()
	require.NoError(t, err)
	assert.True(t, h.isOpen())

	f2, release2, err := h.acquire()
	require.NoError(t, err)
	assert.Same(t, f1, f2)

	require.NoError(t, release2())
	assert.True(t, h.isOpen())
	require.NoError(t, release1())
	assert.False(t, h.isOpen())
}

func TestHandleReleaseIdempotent(t *testing.T) {
	h := newTestHandle(blobstore.NewMemory())

	_, release, err := h.acquire()
	require.NoError(t, err)
	require.NoError(t, release())
	require.NoError(t, release())
	assert.False(t, h.isOpen())
}

func TestHandleFlushOnDirtyRelease(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemory()
	h := newTestHandle(blobs)

	t.Run("clean release does not flush", func(t *testing.T) {
		_, release, err := h.acquire()
		require.NoError(t, err)
		require.NoError(t, release())

		ok, err := blobs.Exists(ctx, "test.nixs")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("dirty release flushes", func(t *testing.T) {
		f, release, err := h.acquire()
		require.NoError(t, err)
		f.CreateBlock("foo", "recording")
		h.markDirty()
		require.NoError(t, release())

		ok, err := blobs.Exists(ctx, "test.nixs")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("reacquire sees flushed state", func(t *testing.T) {
		f, release, err := h.acquire()
		require.NoError(t, err)
		defer release()

		_, ok := f.Block("foo")
		assert.True(t, ok)
	})
}

func TestHandleReadOnlyMissing(t *testing.T) {
	h := newTestHandle(blobstore.NewMemory())
	h.readonly = true

	_, _, err := h.acquire()
	require.ErrorIs(t, err, blobstore.ErrNotFound)
	assert.False(t, h.isOpen())
}
