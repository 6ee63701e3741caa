package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"path"

	"github.com/neurokit/nixstore/codec"
)

// Persistence maps the in-memory tree onto a flat DTO form: metadata pointers
// become section paths, tag references become array names, and source links
// become source paths within their block. Payload rows are stored as raw
// little-endian float64 bytes.

type fileDTO struct {
	Blocks   []*blockDTO   `json:"blocks"`
	Sections []*sectionDTO `json:"sections,omitempty"`
}

type blockDTO struct {
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	Metadata string        `json:"metadata,omitempty"`
	Sources  []*sourceDTO  `json:"sources,omitempty"`
	Arrays   []*arrayDTO   `json:"arrays,omitempty"`
	Tags     []*tagDTO     `json:"tags,omitempty"`
}

type arrayDTO struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Unit     string      `json:"unit,omitempty"`
	Metadata string      `json:"metadata,omitempty"`
	Dims     []Dimension `json:"dims,omitempty"`
	RowLens  []int       `json:"rowLens"`
	Data     []byte      `json:"data"`
	Sources  []string    `json:"sources,omitempty"`
}

type tagDTO struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Position []float64 `json:"position,omitempty"`
	Metadata string    `json:"metadata,omitempty"`
	Refs     []string  `json:"refs,omitempty"`
}

type sourceDTO struct {
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Metadata string       `json:"metadata,omitempty"`
	Sources  []*sourceDTO `json:"sources,omitempty"`
}

type sectionDTO struct {
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	Sections []*sectionDTO `json:"sections,omitempty"`
	Props    []*Property   `json:"props,omitempty"`
}

// Save serializes the file tree into a self-describing blob.
func Save(f *File, c codec.Codec, comp Compression) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}

	secPaths := sectionPaths(f)

	dto := &fileDTO{}
	for _, sec := range f.sections.Items() {
		dto.Sections = append(dto.Sections, sectionToDTO(sec))
	}
	for _, b := range f.blocks.Items() {
		bd := &blockDTO{
			Name:     b.Name,
			Type:     b.Type,
			Metadata: secPaths[b.Metadata],
		}
		for _, src := range b.sources.Items() {
			bd.Sources = append(bd.Sources, sourceToDTO(src, secPaths))
		}
		srcPaths := blockSourcePaths(b)
		for _, da := range b.dataArrays.Items() {
			data, lens := encodeRows(da.rows)
			ad := &arrayDTO{
				Name:     da.Name,
				Type:     da.Type,
				Unit:     da.Unit,
				Metadata: secPaths[da.Metadata],
				Dims:     da.Dimensions,
				RowLens:  lens,
				Data:     data,
			}
			for _, src := range da.sources {
				ad.Sources = append(ad.Sources, srcPaths[src])
			}
			bd.Arrays = append(bd.Arrays, ad)
		}
		for _, t := range b.tags.Items() {
			td := &tagDTO{
				Name:     t.Name,
				Type:     t.Type,
				Position: t.Position,
				Metadata: secPaths[t.Metadata],
			}
			for _, ref := range t.refs {
				td.Refs = append(td.Refs, ref.Name)
			}
			bd.Tags = append(bd.Tags, td)
		}
		dto.Blocks = append(dto.Blocks, bd)
	}

	body, err := c.Marshal(dto)
	if err != nil {
		return nil, fmt.Errorf("container: encode body: %w", err)
	}
	stored, err := compressBlock(body, comp)
	if err != nil {
		return nil, err
	}

	hdr := fileHeader{
		Magic:       MagicNumber,
		Version:     FormatVersion,
		Compression: uint8(comp),
		BodyLen:     uint64(len(stored)),
		Checksum:    Checksum(stored),
	}
	copy(hdr.CodecName[:], c.Name())

	var buf bytes.Buffer
	buf.Grow(headerSize + len(stored))
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	buf.Write(stored)
	return buf.Bytes(), nil
}

// Load deserializes a blob produced by Save.
func Load(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, ErrInvalidMagic
	}
	var hdr fileHeader
	if err := binary.Read(bytes.NewReader(data[:headerSize]), binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	if hdr.Magic != MagicNumber {
		return nil, ErrInvalidMagic
	}
	if hdr.Version != FormatVersion {
		return nil, ErrInvalidVersion
	}
	codecName := string(bytes.TrimRight(hdr.CodecName[:], "\x00"))
	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, codecName)
	}
	if uint64(len(data)-headerSize) < hdr.BodyLen {
		return nil, fmt.Errorf("container: truncated file: body %d of %d bytes", len(data)-headerSize, hdr.BodyLen)
	}
	stored := data[headerSize : headerSize+int(hdr.BodyLen)]
	if sum := Checksum(stored); sum != hdr.Checksum {
		return nil, &ChecksumMismatchError{Expected: hdr.Checksum, Actual: sum}
	}
	body, err := decompressBlock(stored, Compression(hdr.Compression))
	if err != nil {
		return nil, err
	}

	dto := &fileDTO{}
	if err := c.Unmarshal(body, dto); err != nil {
		return nil, fmt.Errorf("container: decode body: %w", err)
	}

	f := NewFile()
	secByPath := make(map[string]*Section)
	for _, sd := range dto.Sections {
		sec := sectionFromDTO(sd, "", secByPath)
		f.sections.Add(sec)
	}
	for _, bd := range dto.Blocks {
		b := f.CreateBlock(bd.Name, bd.Type)
		b.Metadata = secByPath[bd.Metadata]

		srcByPath := make(map[string]*Source)
		for _, sd := range bd.Sources {
			sourceFromDTO(b.CreateSource(sd.Name, sd.Type), sd, sd.Name, srcByPath, secByPath)
		}
		for _, ad := range bd.Arrays {
			rows, err := decodeRows(ad.Data, ad.RowLens)
			if err != nil {
				return nil, fmt.Errorf("container: array %q: %w", ad.Name, err)
			}
			da := b.CreateDataArray(ad.Name, ad.Type, rows)
			da.Unit = ad.Unit
			da.Dimensions = ad.Dims
			da.Metadata = secByPath[ad.Metadata]
			for _, sp := range ad.Sources {
				src, ok := srcByPath[sp]
				if !ok {
					return nil, fmt.Errorf("container: array %q links unknown source %q", ad.Name, sp)
				}
				da.AddSource(src)
			}
		}
		for _, td := range bd.Tags {
			t := b.CreateTag(td.Name, td.Type, td.Position)
			t.Metadata = secByPath[td.Metadata]
			for _, name := range td.Refs {
				da, ok := b.dataArrays.Get(name)
				if !ok {
					return nil, fmt.Errorf("container: tag %q references unknown array %q", td.Name, name)
				}
				t.AddReference(da)
			}
		}
	}
	return f, nil
}

func sectionToDTO(sec *Section) *sectionDTO {
	sd := &sectionDTO{Name: sec.Name, Type: sec.Type, Props: sec.props.Items()}
	for _, child := range sec.sections.Items() {
		sd.Sections = append(sd.Sections, sectionToDTO(child))
	}
	return sd
}

func sectionFromDTO(sd *sectionDTO, parentPath string, byPath map[string]*Section) *Section {
	sec := newSection(sd.Name, sd.Type)
	p := path.Join(parentPath, sd.Name)
	byPath[p] = sec
	for _, prop := range sd.Props {
		sec.props.Add(prop)
	}
	for _, child := range sd.Sections {
		sec.sections.Add(sectionFromDTO(child, p, byPath))
	}
	return sec
}

func sourceToDTO(src *Source, secPaths map[*Section]string) *sourceDTO {
	sd := &sourceDTO{Name: src.Name, Type: src.Type, Metadata: secPaths[src.Metadata]}
	for _, child := range src.sources.Items() {
		sd.Sources = append(sd.Sources, sourceToDTO(child, secPaths))
	}
	return sd
}

func sourceFromDTO(src *Source, sd *sourceDTO, srcPath string, byPath map[string]*Source, secByPath map[string]*Section) {
	src.Metadata = secByPath[sd.Metadata]
	byPath[srcPath] = src
	for _, child := range sd.Sources {
		sourceFromDTO(src.CreateSource(child.Name, child.Type), child, path.Join(srcPath, child.Name), byPath, secByPath)
	}
}

// sectionPaths maps every section in the file's tree to its slash-joined
// path. The nil section maps to "".
func sectionPaths(f *File) map[*Section]string {
	paths := make(map[*Section]string)
	var walk func(sec *Section, parent string)
	walk = func(sec *Section, parent string) {
		p := path.Join(parent, sec.Name)
		paths[sec] = p
		for _, child := range sec.sections.Items() {
			walk(child, p)
		}
	}
	for _, sec := range f.sections.Items() {
		walk(sec, "")
	}
	return paths
}

// blockSourcePaths maps every source in the block to its slash-joined path.
func blockSourcePaths(b *Block) map[*Source]string {
	paths := make(map[*Source]string)
	var walk func(src *Source, parent string)
	walk = func(src *Source, parent string) {
		p := path.Join(parent, src.Name)
		paths[src] = p
		for _, child := range src.sources.Items() {
			walk(child, p)
		}
	}
	for _, src := range b.sources.Items() {
		walk(src, "")
	}
	return paths
}

func encodeRows(rows [][]float64) ([]byte, []int) {
	total := 0
	lens := make([]int, len(rows))
	for i, row := range rows {
		lens[i] = len(row)
		total += len(row)
	}
	data := make([]byte, total*8)
	off := 0
	for _, row := range rows {
		for _, v := range row {
			binary.LittleEndian.PutUint64(data[off:], math.Float64bits(v))
			off += 8
		}
	}
	return data, lens
}

func decodeRows(data []byte, lens []int) ([][]float64, error) {
	// Lengths come from the persisted file; bound them by the payload before
	// allocating so a corrupt file fails instead of crashing.
	limit := len(data) / 8
	total := 0
	for _, n := range lens {
		if n < 0 || n > limit-total {
			return nil, fmt.Errorf("row lengths exceed payload of %d bytes", len(data))
		}
		total += n
	}
	if len(data) != total*8 {
		return nil, fmt.Errorf("payload is %d bytes, want %d", len(data), total*8)
	}
	rows := make([][]float64, len(lens))
	off := 0
	for i, n := range lens {
		row := make([]float64, n)
		for j := range row {
			row[j] = math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))
			off += 8
		}
		rows[i] = row
	}
	return rows, nil
}
