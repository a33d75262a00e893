// Package manifest decodes the three packed stores of a home map: the path
// map, the tags store and the preview index.
//
// Decoders work directly on the caller's byte slices and never build an
// intermediate representation. Every field read is bounds-checked against
// the slice length; malformed input produces one of the sentinel errors in
// this package instead of reading past the buffer.
package manifest
