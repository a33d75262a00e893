package manifest

import "errors"

// Sentinel errors for decode failures on malformed stores.
var (
	// ErrTruncatedEntry is returned when a map entry header or name runs past
	// the end of the map buffer.
	ErrTruncatedEntry = errors.New("homemap: truncated map entry")

	// ErrOffsetOutOfRange is returned when a tag offset does not leave room
	// for the fixed-width size field.
	ErrOffsetOutOfRange = errors.New("homemap: offset out of range")

	// ErrUnterminatedMime is returned when no NUL byte follows a tag's size.
	ErrUnterminatedMime = errors.New("homemap: unterminated mime string")

	// ErrPayloadOutOfRange is returned when a preview payload extends past the
	// end of the index buffer.
	ErrPayloadOutOfRange = errors.New("homemap: preview payload out of range")
)
