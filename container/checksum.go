package container

import (
	"fmt"
	"hash/crc32"
)

// CRC32 (IEEE) is used for corruption detection only; it is not
// cryptographically secure.

var crcTable = crc32.MakeTable(crc32.IEEE)

// Checksum computes the CRC32 checksum of data.
func Checksum(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// ChecksumMismatchError is returned when body checksum verification fails on
// load.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("container: checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}
