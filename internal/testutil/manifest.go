// Package testutil builds home map stores for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// TestEntry is one map record.
type TestEntry struct {
	Path   string
	Offset uint32
}

// BuildTestMap encodes entries as a packed path map, in the given order.
func BuildTestMap(tb testing.TB, entries []TestEntry) []byte {
	tb.Helper()

	var buf bytes.Buffer
	for _, e := range entries {
		if len(e.Path) > 0xFFFF {
			tb.Fatalf("path %.32q... is %d bytes, longer than a map entry can hold", e.Path, len(e.Path))
		}
		buf.Write(binary.LittleEndian.AppendUint32(nil, e.Offset))
		buf.Write(binary.LittleEndian.AppendUint16(nil, uint16(len(e.Path)))) //nolint:gosec // checked above
		buf.WriteString(e.Path)
	}
	return buf.Bytes()
}

// TagRecord encodes a single tags store record.
func TagRecord(size uint64, mime string) []byte {
	rec := binary.LittleEndian.AppendUint64(nil, size)
	rec = append(rec, mime...)
	return append(rec, 0)
}

// PreviewRecord encodes a single preview index record.
func PreviewRecord(payload []byte) []byte {
	rec := binary.LittleEndian.AppendUint32(nil, uint32(len(payload))) //nolint:gosec // test payloads are small
	return append(rec, payload...)
}

// TestFile describes a file whose metadata lands in all three stores.
type TestFile struct {
	Path    string
	Size    uint64
	Mime    string
	Preview []byte
}

// Stores holds the three encoded stores built from a file list.
type Stores struct {
	Map   []byte
	Tags  []byte
	Index []byte

	// Offsets maps each path to the offset recorded for it in Map.
	Offsets map[string]uint32
}

// BuildTestStores encodes files into a map, tags store and preview index.
//
// Each file's tag record and preview record start at the same offset in their
// stores, so the single offset recorded in the map dereferences both. The
// shorter of the two records is padded with zero bytes.
func BuildTestStores(tb testing.TB, files []TestFile) Stores {
	tb.Helper()

	var tags, index bytes.Buffer
	entries := make([]TestEntry, 0, len(files))
	offsets := make(map[string]uint32, len(files))
	for _, f := range files {
		off := uint32(tags.Len()) //nolint:gosec // test stores are small
		tagRec := TagRecord(f.Size, f.Mime)
		prevRec := PreviewRecord(f.Preview)
		width := max(len(tagRec), len(prevRec))
		tags.Write(tagRec)
		tags.Write(make([]byte, width-len(tagRec)))
		index.Write(prevRec)
		index.Write(make([]byte, width-len(prevRec)))

		entries = append(entries, TestEntry{Path: f.Path, Offset: off})
		if _, dup := offsets[f.Path]; !dup {
			offsets[f.Path] = off
		}
	}

	return Stores{
		Map:     BuildTestMap(tb, entries),
		Tags:    tags.Bytes(),
		Index:   index.Bytes(),
		Offsets: offsets,
	}
}
