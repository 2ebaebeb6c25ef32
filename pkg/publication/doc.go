// Package publication provides the content model of an editorial publication:
// a titled aggregate holding ordered sections and every content block used by
// those sections.
//
// A Publication owns its blocks and sections. Sections never own blocks; they
// hold BlockOrder entries that reference a block by identity. Blocks are kept
// in one identity-keyed collection and the eight per-kind collections (text,
// description, image, carousel, table, video, audio, text-image) are derived
// views, so a block can never be a member of two kind collections.
//
// Integrity
//
// Every mutating operation on Publication is atomic: it either succeeds and
// leaves the aggregate valid, or fails with a wrapped sentinel error
// (ErrDuplicateBlock, ErrDanglingReference, ErrReferencedBlock, ...) and leaves
// the aggregate untouched. Callers match errors with errors.Is.
//
// Concurrency
//
// Publication performs no locking. Concurrent editors should go through
// editor.Session, which serializes writers and applies optimistic version
// checks.
//
// Serialization
//
// Document is the wire representation. The default layout keeps one list per
// kind (textBlocks, imageBlocks, ...) and every block carries a "type"
// discriminator, so the tagged single-list layout (FlatDocument) is derived
// without loss. Both JSON and CBOR encodings are supported.
package publication
