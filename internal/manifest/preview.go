package manifest

import (
	"encoding/binary"
	"fmt"
)

// lengthPrefixWidth is the width of the little-endian payload length that
// starts every preview record.
const lengthPrefixWidth = 4

// Previews reads length-prefixed payloads from a preview index store.
type Previews struct {
	data []byte
}

// NewPreviews wraps data without copying or validating it.
func NewPreviews(data []byte) Previews {
	return Previews{data: data}
}

// Payload returns the payload stored at offset, clamped to maxLength bytes.
// The returned slice aliases the index buffer.
//
// If the length prefix itself does not fit, Payload returns an empty slice
// and no error. A payload that runs past the buffer after clamping returns
// ErrPayloadOutOfRange.
func (p Previews) Payload(offset, maxLength uint32) ([]byte, error) {
	start := uint64(offset) + lengthPrefixWidth
	if start > uint64(len(p.data)) {
		return nil, nil
	}
	n := min(binary.LittleEndian.Uint32(p.data[offset:]), maxLength)
	end := start + uint64(n)
	if end > uint64(len(p.data)) {
		return nil, fmt.Errorf("%w: %d bytes at %d in %d-byte index store",
			ErrPayloadOutOfRange, n, start, len(p.data))
	}
	return p.data[start:end:end], nil
}

// PayloadLen returns the unclamped payload length recorded at offset.
// ok is false when the length prefix does not fit in the buffer.
func (p Previews) PayloadLen(offset uint32) (uint32, bool) {
	if uint64(offset)+lengthPrefixWidth > uint64(len(p.data)) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(p.data[offset:]), true
}
