package manifest

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// sizeWidth is the width of the little-endian size field that starts every
// tag record. The NUL-terminated mime string follows it.
const sizeWidth = 8

// Tags reads size and mime records from a tags store.
type Tags struct {
	data []byte
}

// NewTags wraps data without copying or validating it.
func NewTags(data []byte) Tags {
	return Tags{data: data}
}

// Size returns the file size recorded at offset.
func (t Tags) Size(offset uint32) (uint64, error) {
	if uint64(offset)+sizeWidth > uint64(len(t.data)) {
		return 0, fmt.Errorf("%w: size at %d in %d-byte tags store", ErrOffsetOutOfRange, offset, len(t.data))
	}
	return binary.LittleEndian.Uint64(t.data[offset:]), nil
}

// Mime returns the mime string recorded at offset, without its terminator.
// The returned slice aliases the tags buffer.
func (t Tags) Mime(offset uint32) ([]byte, error) {
	start := uint64(offset) + sizeWidth
	if start > uint64(len(t.data)) {
		return nil, fmt.Errorf("%w: mime at %d in %d-byte tags store", ErrOffsetOutOfRange, start, len(t.data))
	}
	rest := t.data[start:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return nil, fmt.Errorf("%w: at %d", ErrUnterminatedMime, start)
	}
	return rest[:end:end], nil
}

// MimeZ is like Mime but keeps the NUL terminator in the returned slice.
func (t Tags) MimeZ(offset uint32) ([]byte, error) {
	mime, err := t.Mime(offset)
	if err != nil {
		return nil, err
	}
	start := uint64(offset) + sizeWidth
	end := start + uint64(len(mime)) + 1
	return t.data[start:end:end], nil
}
