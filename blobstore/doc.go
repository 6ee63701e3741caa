// Package blobstore abstracts where container files live.
//
// A Store maps names to whole-file byte blobs. Container files are read and
// written whole (they are loaded into memory anyway), so the interface is a
// simple Get/Put/Exists rather than a streaming one.
//
// Backends:
//   - Local: files under a root directory (the default)
//   - Memory: in-process map, useful for tests
//   - minio.Store: S3-compatible object storage (subpackage)
package blobstore
