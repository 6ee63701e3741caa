// Package container implements the hierarchical container store that backs
// nixstore files.
//
// The model follows the NIX data model: a File holds named Blocks, each Block
// holds typed DataArrays (numeric payloads with dimension descriptors), Tags
// (reference lists over data arrays) and Sources (nested link providers), and
// a tree of metadata Sections with typed multi-valued Properties.
//
// The whole tree lives in memory; Save/Load serialize it as a single
// self-describing blob (header + checksummed, optionally compressed codec
// body). Numeric payloads are stored as raw little-endian float64 bytes so
// they round-trip bit-exactly.
package container
