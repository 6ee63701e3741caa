package blobstore

import (
	"context"
	"fmt"
)

// Memory implements Store with an in-process map. It is intended for tests
// and ephemeral use; contents are lost when the process exits.
type Memory struct {
	blobs map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Get returns a copy of the named blob.
func (s *Memory) Get(_ context.Context, name string) ([]byte, error) {
	data, ok := s.blobs[name]
	if !ok {
		return nil, fmt.Errorf("blob %q: %w", name, ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put stores a copy of data under name.
func (s *Memory) Put(_ context.Context, name string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[name] = cp
	return nil
}

// Exists reports whether the named blob exists.
func (s *Memory) Exists(_ context.Context, name string) (bool, error) {
	_, ok := s.blobs[name]
	return ok, nil
}
