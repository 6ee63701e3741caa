package model

import "slices"

// List is an ordered child collection that can load its members on demand.
//
// A list is either eager (NewList) or deferred (DeferredList). A deferred
// list invokes its fetch function on the first operation and caches the
// result for the list's lifetime; every later operation works on the cache.
// Mutations never write through to the backing store — persisting them is the
// writer's job, invoked explicitly by the caller.
//
// Lists are not safe for concurrent use.
type List[T comparable] struct {
	fetch  func() ([]T, error)
	items  []T
	loaded bool
}

// NewList creates an eager list holding the given items.
func NewList[T comparable](items ...T) *List[T] {
	return &List[T]{items: items, loaded: true}
}

// DeferredList creates a list whose members are produced by fetch on first
// access.
func DeferredList[T comparable](fetch func() ([]T, error)) *List[T] {
	return &List[T]{fetch: fetch}
}

// Loaded reports whether the members have been materialized.
func (l *List[T]) Loaded() bool { return l.loaded }

func (l *List[T]) load() error {
	if l.loaded {
		return nil
	}
	items, err := l.fetch()
	if err != nil {
		return err
	}
	l.items = items
	l.loaded = true
	l.fetch = nil
	return nil
}

// Len returns the number of members.
func (l *List[T]) Len() (int, error) {
	if err := l.load(); err != nil {
		return 0, err
	}
	return len(l.items), nil
}

// At returns the member at index i.
func (l *List[T]) At(i int) (T, error) {
	var zero T
	if err := l.load(); err != nil {
		return zero, err
	}
	return l.items[i], nil
}

// Set replaces the member at index i.
func (l *List[T]) Set(i int, v T) error {
	if err := l.load(); err != nil {
		return err
	}
	l.items[i] = v
	return nil
}

// Slice returns the members in order. The returned slice is a copy.
func (l *List[T]) Slice() ([]T, error) {
	if err := l.load(); err != nil {
		return nil, err
	}
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out, nil
}

// Append adds members at the end (covers both append and extend).
func (l *List[T]) Append(vs ...T) error {
	if err := l.load(); err != nil {
		return err
	}
	l.items = append(l.items, vs...)
	return nil
}

// Insert adds a member at index i.
func (l *List[T]) Insert(i int, v T) error {
	if err := l.load(); err != nil {
		return err
	}
	l.items = slices.Insert(l.items, i, v)
	return nil
}

// Remove deletes the first member equal to v. It reports whether a member was
// removed.
func (l *List[T]) Remove(v T) (bool, error) {
	if err := l.load(); err != nil {
		return false, err
	}
	for i, item := range l.items {
		if item == v {
			l.items = slices.Delete(l.items, i, i+1)
			return true, nil
		}
	}
	return false, nil
}

// RemoveAt deletes the member at index i.
func (l *List[T]) RemoveAt(i int) error {
	if err := l.load(); err != nil {
		return err
	}
	l.items = slices.Delete(l.items, i, i+1)
	return nil
}

// Reverse reverses the member order in place.
func (l *List[T]) Reverse() error {
	if err := l.load(); err != nil {
		return err
	}
	slices.Reverse(l.items)
	return nil
}
