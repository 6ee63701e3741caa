// Package nixstore maps an in-memory electrophysiology recording graph onto
// a hierarchical container file.
//
// Structural kinds (recordings, segments, channel groups, units) are
// identified by name; data leaves (time series, spike trains, event and
// interval sets) are identified by a content hash of their payload, so that
// writing identical data twice is idempotent and payload-equal leaves are
// stored once. Writes reconcile the given subtree against the stored one and
// finish with an orphan sweep; reads return objects whose child collections
// load lazily on first access.
//
// A Store is not safe for concurrent use. All operations, including lazy
// child loads on objects a Store returned, must run on one goroutine at a
// time.
package nixstore

import (
	"errors"
	"path/filepath"

	"github.com/neurokit/nixstore/blobstore"
	"github.com/neurokit/nixstore/codec"
	"github.com/neurokit/nixstore/model"
)

// ErrReadOnly is returned by write operations on a read-only store.
var ErrReadOnly = errors.New("nixstore: store is read-only")

// Store is a handle on one container file.
type Store struct {
	path   string
	opts   Options
	logger *Logger
	handle *fileHandle
}

// New creates a store for the container file at path. The file is opened
// lazily on first use; a missing file is created on the first write.
func New(path string, optFns ...func(*Options)) (*Store, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	name := path
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Blobs == nil {
		opts.Blobs = blobstore.NewLocal(filepath.Dir(path))
		name = filepath.Base(path)
	}
	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}

	return &Store{
		path:   path,
		opts:   opts,
		logger: opts.Logger,
		handle: &fileHandle{
			name:        name,
			blobs:       opts.Blobs,
			codec:       opts.Codec,
			compression: opts.Compression,
			readonly:    opts.ReadOnly,
		},
	}, nil
}

// ReadAllRecordings reads every top-level recording in the container. Child
// collections of the returned objects load lazily.
func (s *Store) ReadAllRecordings() ([]*model.Recording, error) {
	f, release, err := s.handle.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var recs []*model.Recording
	for _, blk := range f.Blocks().Items() {
		if blk.Type != model.KindRecording.String() {
			continue
		}
		rec, err := readRecording(s.handle, f, blk.Name)
		if err != nil {
			s.logger.LogRead(model.KindRecording, blk.Name, err)
			return nil, err
		}
		recs = append(recs, rec)
	}
	s.logger.LogRead(model.KindRecording, "*", nil)
	return recs, release()
}

// ReadRecording reads the named top-level recording. It returns a
// NotFoundError if no recording with that name is stored.
func (s *Store) ReadRecording(name string) (*model.Recording, error) {
	f, release, err := s.handle.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	rec, err := readRecording(s.handle, f, name)
	s.logger.LogRead(model.KindRecording, name, err)
	if err != nil {
		return nil, err
	}
	return rec, release()
}

// WriteRecording reconciles the recording into the container. With recursive
// set, the full subtree is written and child collections are diffed against
// the stored state; otherwise only the recording node and its attributes are
// touched. Unreachable data arrays are swept afterwards.
func (s *Store) WriteRecording(rec *model.Recording, recursive bool) error {
	if s.opts.ReadOnly {
		return ErrReadOnly
	}

	f, release, err := s.handle.acquire()
	if err != nil {
		return err
	}
	defer release()

	blk, err := writeRecording(f, rec, recursive)
	s.logger.LogWrite(model.KindRecording, rec.Name, err)
	if err != nil {
		return err
	}
	if recursive {
		if removed := sweep(blk); removed > 0 {
			s.logger.LogSweep(blk.Name, removed)
		}
	}
	s.handle.markDirty()
	return release()
}

// Close releases the store. It exists for symmetry with resource-holding
// stores; the container itself is opened and closed per operation.
func (s *Store) Close() error {
	if s.handle.isOpen() {
		return errors.New("nixstore: close with operation in flight")
	}
	return nil
}
