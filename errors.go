package homemap

import "github.com/meigma/homemap/internal/manifest"

// NotFound is the offset reported by LookupOffset for absent names.
const NotFound = manifest.NotFound

// Sentinel errors re-exported from internal/manifest.
var (
	// ErrTruncatedEntry is returned when a map entry runs past the end of the
	// map buffer.
	ErrTruncatedEntry = manifest.ErrTruncatedEntry

	// ErrOffsetOutOfRange is returned when a tag offset lies outside the tags
	// store.
	ErrOffsetOutOfRange = manifest.ErrOffsetOutOfRange

	// ErrUnterminatedMime is returned when a tag's mime string has no NUL
	// terminator before the end of the tags store.
	ErrUnterminatedMime = manifest.ErrUnterminatedMime

	// ErrPayloadOutOfRange is returned when a preview payload runs past the
	// end of the index store.
	ErrPayloadOutOfRange = manifest.ErrPayloadOutOfRange
)
