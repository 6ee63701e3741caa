package container

import "errors"

const (
	// MagicNumber identifies nixstore container files (ASCII: "NIXS").
	MagicNumber = 0x4E495853
	// FormatVersion is the current file format version (v1.0).
	FormatVersion = 0x00010000

	// headerSize is the fixed size of the file header in bytes.
	headerSize = 32
)

var (
	// ErrInvalidMagic is returned when a file does not start with the
	// container magic number.
	ErrInvalidMagic = errors.New("container: invalid magic number")
	// ErrInvalidVersion is returned for unsupported format versions.
	ErrInvalidVersion = errors.New("container: unsupported format version")
	// ErrUnknownCodec is returned when the codec named in the header is not
	// registered.
	ErrUnknownCodec = errors.New("container: unknown codec")
	// ErrUnknownCompression is returned for an unrecognized compression tag.
	ErrUnknownCompression = errors.New("container: unknown compression")
)

// fileHeader is the fixed-size header at the start of every container file.
//
// Layout (little-endian):
//
//	Magic       uint32
//	Version     uint32
//	CodecName   [8]byte  // zero-padded codec name, e.g. "json"
//	Compression uint8
//	_           [3]byte
//	BodyLen     uint64   // length of the stored (compressed) body
//	Checksum    uint32   // CRC32 (IEEE) of the stored body
type fileHeader struct {
	Magic       uint32
	Version     uint32
	CodecName   [8]byte
	Compression uint8
	Pad         [3]byte
	BodyLen     uint64
	Checksum    uint32
}
