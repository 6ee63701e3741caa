package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// errors.Is(err, ErrNotFound). The default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for reading and writing whole named blobs.
type Store interface {
	// Get reads the blob with the given name.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put writes the blob atomically, replacing any existing content.
	Put(ctx context.Context, name string, data []byte) error
	// Exists reports whether a blob with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)
}
