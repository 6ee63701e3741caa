package nixstore

import (
	"context"
	"fmt"

	"github.com/neurokit/nixstore/blobstore"
	"github.com/neurokit/nixstore/codec"
	"github.com/neurokit/nixstore/container"
)

// fileHandle is the shared backing-store resource. Entry points and lazy
// fetches acquire it for the duration of one operation; a re-entrancy counter
// tracks nesting so that only the outermost release closes (and, after a
// write, flushes) the container.
//
// There is no locking: one logical acquire/release cycle at a time, enforced
// by convention (see the package documentation on concurrency).
type fileHandle struct {
	name        string
	blobs       blobstore.Store
	codec       codec.Codec
	compression container.Compression
	readonly    bool

	file  *container.File
	depth int
	dirty bool
}

// isOpen reports whether an acquisition is currently in flight.
func (h *fileHandle) isOpen() bool { return h.depth > 0 }

// markDirty requests a flush on the outermost release.
func (h *fileHandle) markDirty() { h.dirty = true }

// acquire opens the container if it is not already open and returns it
// together with a release function. Release must be called exactly once; the
// outermost release flushes the container back to the blobstore if it was
// marked dirty, then drops the in-memory tree.
func (h *fileHandle) acquire() (*container.File, func() error, error) {
	ctx := context.Background()

	if h.depth == 0 {
		exists, err := h.blobs.Exists(ctx, h.name)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case exists:
			data, err := h.blobs.Get(ctx, h.name)
			if err != nil {
				return nil, nil, err
			}
			f, err := container.Load(data)
			if err != nil {
				return nil, nil, err
			}
			h.file = f
		case h.readonly:
			return nil, nil, fmt.Errorf("open %q read-only: %w", h.name, blobstore.ErrNotFound)
		default:
			h.file = container.NewFile()
		}
	}
	h.depth++

	released := false
	release := func() error {
		if released {
			return nil
		}
		released = true
		h.depth--
		if h.depth > 0 {
			return nil
		}
		file := h.file
		h.file = nil
		if !h.dirty || h.readonly {
			return nil
		}
		data, err := container.Save(file, h.codec, h.compression)
		if err != nil {
			return err
		}
		if err := h.blobs.Put(ctx, h.name, data); err != nil {
			return err
		}
		h.dirty = false
		return nil
	}
	return h.file, release, nil
}
