package container

// File is the root of a container tree: top-level blocks plus the root of the
// metadata section tree.
type File struct {
	blocks   *Coll[*Block]
	sections *Coll[*Section]
}

// NewFile creates an empty container tree.
func NewFile() *File {
	return &File{
		blocks:   NewColl[*Block](),
		sections: NewColl[*Section](),
	}
}

// Blocks returns the top-level block collection.
func (f *File) Blocks() *Coll[*Block] { return f.blocks }

// Block returns the block with the given name.
func (f *File) Block(name string) (*Block, bool) { return f.blocks.Get(name) }

// CreateBlock creates a block with the given name and type tag and adds it to
// the file, replacing any block with the same name.
func (f *File) CreateBlock(name, typ string) *Block {
	b := &Block{
		Name:       name,
		Type:       typ,
		dataArrays: NewColl[*DataArray](),
		tags:       NewColl[*Tag](),
		sources:    NewColl[*Source](),
	}
	f.blocks.Add(b)
	return b
}

// Sections returns the root metadata section collection.
func (f *File) Sections() *Coll[*Section] { return f.sections }

// Section returns the root section with the given name.
func (f *File) Section(name string) (*Section, bool) { return f.sections.Get(name) }

// GetOrCreateSection returns the root section with the given name, creating
// it with the given type tag if absent.
func (f *File) GetOrCreateSection(name, typ string) *Section {
	if sec, ok := f.sections.Get(name); ok {
		return sec
	}
	sec := newSection(name, typ)
	f.sections.Add(sec)
	return sec
}

// Block is a top-level container node holding data arrays, tags and sources.
type Block struct {
	Name string
	Type string

	// Metadata points into the file's section tree; it is resolved by path
	// during persistence.
	Metadata *Section

	dataArrays *Coll[*DataArray]
	tags       *Coll[*Tag]
	sources    *Coll[*Source]
}

func (b *Block) key() string { return b.Name }

// DataArrays returns the block's data-array collection.
func (b *Block) DataArrays() *Coll[*DataArray] { return b.dataArrays }

// Tags returns the block's tag collection.
func (b *Block) Tags() *Coll[*Tag] { return b.tags }

// Sources returns the block's top-level source collection.
func (b *Block) Sources() *Coll[*Source] { return b.sources }

// CreateDataArray creates a data array with the given payload rows and adds
// it to the block. The payload is owned by the array afterwards.
func (b *Block) CreateDataArray(name, typ string, rows [][]float64) *DataArray {
	da := &DataArray{Name: name, Type: typ, rows: rows}
	b.dataArrays.Add(da)
	return da
}

// CreateTag creates a tag at the given position and adds it to the block.
func (b *Block) CreateTag(name, typ string, position []float64) *Tag {
	t := &Tag{Name: name, Type: typ, Position: position}
	b.tags.Add(t)
	return t
}

// CreateSource creates a top-level source and adds it to the block.
func (b *Block) CreateSource(name, typ string) *Source {
	s := &Source{Name: name, Type: typ, sources: NewColl[*Source]()}
	b.sources.Add(s)
	return s
}

// Tag is a container node carrying an ordered reference list of data arrays.
type Tag struct {
	Name     string
	Type     string
	Position []float64
	Metadata *Section

	refs []*DataArray
}

func (t *Tag) key() string { return t.Name }

// References returns the referenced data arrays in list order.
func (t *Tag) References() []*DataArray {
	out := make([]*DataArray, len(t.refs))
	copy(out, t.refs)
	return out
}

// HasReference reports whether a data array with the given name is referenced.
func (t *Tag) HasReference(name string) bool {
	for _, da := range t.refs {
		if da.Name == name {
			return true
		}
	}
	return false
}

// AddReference appends the data array to the reference list if absent.
func (t *Tag) AddReference(da *DataArray) {
	if t.HasReference(da.Name) {
		return
	}
	t.refs = append(t.refs, da)
}

// RemoveReference drops the named data array from the reference list. It
// reports whether a reference was removed.
func (t *Tag) RemoveReference(name string) bool {
	for i, da := range t.refs {
		if da.Name == name {
			t.refs = append(t.refs[:i], t.refs[i+1:]...)
			return true
		}
	}
	return false
}

// Source is a container node providing link-based membership. Sources nest:
// a child source belongs to its parent's collection.
type Source struct {
	Name     string
	Type     string
	Metadata *Section

	sources *Coll[*Source]
}

func (s *Source) key() string { return s.Name }

// Sources returns the nested source collection.
func (s *Source) Sources() *Coll[*Source] { return s.sources }

// CreateSource creates a nested source and adds it to this source.
func (s *Source) CreateSource(name, typ string) *Source {
	child := &Source{Name: name, Type: typ, sources: NewColl[*Source]()}
	s.sources.Add(child)
	return child
}

// DimensionKind identifies a dimension descriptor variant.
type DimensionKind uint8

const (
	// DimSampled describes a fixed sampling interval.
	DimSampled DimensionKind = iota + 1
	// DimRange describes explicit tick positions.
	DimRange
	// DimSet describes a labeled set (discrete positions).
	DimSet
)

// Dimension describes one axis of a data array. Exactly the fields matching
// Kind are meaningful.
type Dimension struct {
	Kind             DimensionKind `json:"kind"`
	SamplingInterval float64       `json:"interval,omitempty"`
	Unit             string        `json:"unit,omitempty"`
	Ticks            []float64     `json:"ticks,omitempty"`
	Labels           []string      `json:"labels,omitempty"`
}

// DataArray is a typed numeric payload with dimension descriptors. The
// payload is a list of equal-rank rows (rank 1: one row; rank 2: one row per
// dimension, e.g. times plus durations).
type DataArray struct {
	Name     string
	Type     string
	Unit     string
	Metadata *Section

	Dimensions []Dimension

	rows    [][]float64
	sources []*Source
}

func (d *DataArray) key() string { return d.Name }

// Rows returns the payload rows. Callers must treat the rows as immutable;
// payload content defines the array's identity.
func (d *DataArray) Rows() [][]float64 { return d.rows }

// Sources returns the sources linked to this array in link order.
func (d *DataArray) Sources() []*Source {
	out := make([]*Source, len(d.sources))
	copy(out, d.sources)
	return out
}

// HasSource reports whether a source with the given name is linked.
func (d *DataArray) HasSource(name string) bool {
	for _, s := range d.sources {
		if s.Name == name {
			return true
		}
	}
	return false
}

// AddSource links the source to this array if not already linked.
func (d *DataArray) AddSource(s *Source) {
	if d.HasSource(s.Name) {
		return
	}
	d.sources = append(d.sources, s)
}

// RemoveSource drops the named source link. It reports whether a link was
// removed.
func (d *DataArray) RemoveSource(name string) bool {
	for i, s := range d.sources {
		if s.Name == name {
			d.sources = append(d.sources[:i], d.sources[i+1:]...)
			return true
		}
	}
	return false
}

// Section is a node in the metadata tree: nested sections plus typed
// properties.
type Section struct {
	Name string
	Type string

	sections *Coll[*Section]
	props    *Coll[*Property]
}

func newSection(name, typ string) *Section {
	return &Section{
		Name:     name,
		Type:     typ,
		sections: NewColl[*Section](),
		props:    NewColl[*Property](),
	}
}

func (s *Section) key() string { return s.Name }

// Sections returns the nested section collection.
func (s *Section) Sections() *Coll[*Section] { return s.sections }

// Section returns the nested section with the given name.
func (s *Section) Section(name string) (*Section, bool) { return s.sections.Get(name) }

// GetOrCreateSection returns the nested section with the given name, creating
// it with the given type tag if absent.
func (s *Section) GetOrCreateSection(name, typ string) *Section {
	if sec, ok := s.sections.Get(name); ok {
		return sec
	}
	sec := newSection(name, typ)
	s.sections.Add(sec)
	return sec
}

// Props returns the property collection.
func (s *Section) Props() *Coll[*Property] { return s.props }

// Prop returns the property with the given name.
func (s *Section) Prop(name string) (*Property, bool) { return s.props.Get(name) }

// SetProp creates or replaces the named property.
func (s *Section) SetProp(name string, values []Value) *Property {
	p := &Property{Name: name, Values: values}
	s.props.Add(p)
	return p
}

// Property is a named, typed, multi-valued entry of a section.
type Property struct {
	Name   string  `json:"name"`
	Values []Value `json:"values"`
}

func (p *Property) key() string { return p.Name }
