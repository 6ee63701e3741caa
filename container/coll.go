package container

// keyed is implemented by every named container entity.
type keyed interface {
	key() string
}

// Coll is an ordered, name-indexed collection of container entities.
//
// Enumeration order is insertion order. Adding an entity whose name is
// already present silently replaces it in place, keeping its position.
type Coll[T keyed] struct {
	items []T
	index map[string]int
}

// NewColl creates an empty collection.
func NewColl[T keyed]() *Coll[T] {
	return &Coll[T]{index: make(map[string]int)}
}

// Len returns the number of entities.
func (c *Coll[T]) Len() int { return len(c.items) }

// Has reports whether an entity with the given name is present.
func (c *Coll[T]) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Get returns the entity with the given name.
func (c *Coll[T]) Get(name string) (T, bool) {
	if i, ok := c.index[name]; ok {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Add inserts the entity, replacing any existing entity with the same name.
func (c *Coll[T]) Add(v T) {
	name := v.key()
	if i, ok := c.index[name]; ok {
		c.items[i] = v
		return
	}
	c.index[name] = len(c.items)
	c.items = append(c.items, v)
}

// Delete removes the entity with the given name, preserving the order of the
// remaining entities. It reports whether an entity was removed.
func (c *Coll[T]) Delete(name string) bool {
	i, ok := c.index[name]
	if !ok {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, name)
	for j := i; j < len(c.items); j++ {
		c.index[c.items[j].key()] = j
	}
	return true
}

// Items returns the entities in enumeration order. The returned slice is a
// copy; the entities themselves are shared.
func (c *Coll[T]) Items() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Names returns the entity names in enumeration order.
func (c *Coll[T]) Names() []string {
	out := make([]string, len(c.items))
	for i, v := range c.items {
		out[i] = v.key()
	}
	return out
}
