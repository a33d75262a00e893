package manifest

import (
	"encoding/binary"
	"fmt"
	"iter"
)

// Map entry layout: uint32 target offset, uint16 name length, name bytes.
// All integers are little-endian and entries are packed with no padding.
const (
	offsetWidth = 4
	lengthWidth = 2
	headerWidth = offsetWidth + lengthWidth
)

// NotFound is the target offset reported for names absent from the map.
const NotFound uint32 = 0xFFFFFFFF

// Entry is one decoded map record.
//
// Name aliases the map buffer and must be treated as immutable. It is only
// valid while the buffer it was decoded from is alive.
type Entry struct {
	Offset uint32
	Name   []byte
}

// Path returns the entry name as a string.
func (e Entry) Path() string {
	return string(e.Name)
}

// Map scans a packed path map.
//
// The zero value is an empty map.
type Map struct {
	data []byte
}

// NewMap wraps data without copying or validating it.
func NewMap(data []byte) Map {
	return Map{data: data}
}

// Size returns the length of the underlying buffer in bytes.
func (m Map) Size() int {
	return len(m.data)
}

// entryAt decodes the entry starting at pos and returns the position of the
// following entry.
func (m Map) entryAt(pos int) (Entry, int, error) {
	remain := len(m.data) - pos
	if remain < headerWidth {
		return Entry{}, pos, fmt.Errorf("%w: header at byte %d needs %d bytes, %d remain",
			ErrTruncatedEntry, pos, headerWidth, remain)
	}
	offset := binary.LittleEndian.Uint32(m.data[pos:])
	n := int(binary.LittleEndian.Uint16(m.data[pos+offsetWidth:]))
	start := pos + headerWidth
	if n > len(m.data)-start {
		return Entry{}, pos, fmt.Errorf("%w: name at byte %d needs %d bytes, %d remain",
			ErrTruncatedEntry, start, n, len(m.data)-start)
	}
	end := start + n
	return Entry{Offset: offset, Name: m.data[start:end:end]}, end, nil
}

// Entries returns an iterator over all entries in storage order.
//
// A decode failure is yielded once with a zero Entry and ends the iteration.
func (m Map) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for pos := 0; pos < len(m.data); {
			e, next, err := m.entryAt(pos)
			if err != nil {
				yield(Entry{}, err)
				return
			}
			if !yield(e, nil) {
				return
			}
			pos = next
		}
	}
}

// EntriesWithPrefix returns an iterator over entries whose name begins with
// prefix, in storage order. An empty prefix matches every entry.
func (m Map) EntriesWithPrefix(prefix string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for e, err := range m.Entries() {
			if err != nil {
				yield(Entry{}, err)
				return
			}
			if !hasPrefix(e.Name, prefix) {
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Lookup returns the target offset of the first entry named exactly name.
// Matching is byte-for-byte and case-sensitive.
//
// A decode failure before a match is found is returned as an error; entries
// after the first match are never decoded.
func (m Map) Lookup(name string) (uint32, bool, error) {
	for e, err := range m.Entries() {
		if err != nil {
			return NotFound, false, err
		}
		if string(e.Name) == name {
			return e.Offset, true, nil
		}
	}
	return NotFound, false, nil
}

// CountPrefix returns the number of entries whose name begins with prefix.
func (m Map) CountPrefix(prefix string) (int, error) {
	count := 0
	for _, err := range m.EntriesWithPrefix(prefix) {
		if err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

// AppendPrefix appends the names of entries beginning with prefix to dst in
// storage order. The appended strings are copies.
func (m Map) AppendPrefix(dst []string, prefix string) ([]string, error) {
	for e, err := range m.EntriesWithPrefix(prefix) {
		if err != nil {
			return dst, err
		}
		dst = append(dst, string(e.Name))
	}
	return dst, nil
}

// Len returns the number of entries in the map.
func (m Map) Len() (int, error) {
	return m.CountPrefix("")
}

func hasPrefix(name []byte, prefix string) bool {
	return len(name) >= len(prefix) && string(name[:len(prefix)]) == prefix
}
