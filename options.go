package nixstore

import (
	"github.com/neurokit/nixstore/blobstore"
	"github.com/neurokit/nixstore/codec"
	"github.com/neurokit/nixstore/container"
)

// Options configures a Store.
type Options struct {
	// ReadOnly opens the container for reading only; writes fail and nothing
	// is flushed back on release.
	ReadOnly bool

	// Compression selects the body compression of newly saved container
	// files. Existing files are self-describing.
	Compression container.Compression

	// Codec encodes the container body of newly saved files. Defaults to
	// codec.Default.
	Codec codec.Codec

	// Blobs is where the container file lives. Defaults to the local file
	// system rooted at the directory part of the store path.
	Blobs blobstore.Store

	// Logger receives structured operation logs. Defaults to NoopLogger.
	Logger *Logger
}

// DefaultOptions are the options applied before any option functions run.
var DefaultOptions = Options{
	Compression: container.CompressionZstd,
}
