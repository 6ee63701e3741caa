package nixstore

import (
	"fmt"

	"github.com/neurokit/nixstore/model"
)

// Errors are surfaced to the caller undecorated: a failed read or write
// reflects a caller logic error or a corrupted store, so there are no retries
// and no silent recovery.

// NotFoundError indicates that a lookup by identity failed on read.
type NotFoundError struct {
	Kind model.Kind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// DanglingParentError indicates that a write targeted a parent that does not
// exist in the container.
type DanglingParentError struct {
	Kind model.Kind
	Name string
}

func (e *DanglingParentError) Error() string {
	return fmt.Sprintf("parent %s %q does not exist in container", e.Kind, e.Name)
}

// MissingUnitError indicates that a quantity attribute lacks its paired unit
// on decode.
type MissingUnitError struct {
	Attr string
}

func (e *MissingUnitError) Error() string {
	return fmt.Sprintf("quantity attribute %q has no companion %s%s", e.Attr, e.Attr, unitSuffix)
}

// CodecMismatchError indicates an attribute value whose type is incompatible
// with the container's typed property system.
type CodecMismatchError struct {
	Attr  string
	Value any
}

func (e *CodecMismatchError) Error() string {
	return fmt.Sprintf("attribute %q has unsupported type %T", e.Attr, e.Value)
}
