package source

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/tidwall/jsonc"
)

// ManifestSuffix is appended to a store name to locate its part manifest.
const ManifestSuffix = ".manifest.json"

// Compression identifies how a part is encoded on the wire.
type Compression string

const (
	// CompressionNone stores parts as raw bytes.
	CompressionNone Compression = ""
	// CompressionZstd stores parts as zstd frames.
	CompressionZstd Compression = "zstd"
	// CompressionLZ4 stores parts as lz4 frames.
	CompressionLZ4 Compression = "lz4"
)

// PartManifest describes a store split into ordered parts.
type PartManifest struct {
	// File is the name of the reassembled store, when recorded.
	File string `json:"file,omitempty"`
	// Parts lists part names in concatenation order.
	Parts []string `json:"parts,omitempty"`
	// Files is the alternate spelling of Parts used by newer splitters.
	Files []string `json:"files,omitempty"`
	// OriginalSize is the byte length of the reassembled store, when recorded.
	OriginalSize *int64 `json:"original_size,omitempty"`
	// PartSize is the nominal size of every part but the last.
	PartSize int64 `json:"part_size,omitempty"`
	// Digests optionally lists one content digest per part, in order.
	// Digests cover the part as fetched, before decompression.
	Digests []digest.Digest `json:"digests,omitempty"`
	// Compression applies to every part. When empty it is inferred per part
	// from a ".zst" or ".lz4" suffix.
	Compression Compression `json:"compression,omitempty"`
}

// ParsePartManifest decodes and validates a part manifest.
// Comments and trailing commas are accepted.
func ParsePartManifest(data []byte) (*PartManifest, error) {
	var m PartManifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPartManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate reports whether m describes a usable layout.
func (m *PartManifest) Validate() error {
	switch {
	case len(m.Parts) > 0 && len(m.Files) > 0:
		return fmt.Errorf("%w: both parts and files are set", ErrInvalidPartManifest)
	case len(m.Parts) == 0 && len(m.Files) == 0:
		return fmt.Errorf("%w: no parts listed", ErrInvalidPartManifest)
	}
	for i, name := range m.Names() {
		if !validPartName(name) {
			return fmt.Errorf("%w: part %d has invalid name %q", ErrInvalidPartManifest, i, name)
		}
	}
	if len(m.Digests) > 0 && len(m.Digests) != len(m.Names()) {
		return fmt.Errorf("%w: %d digests for %d parts", ErrInvalidPartManifest, len(m.Digests), len(m.Names()))
	}
	for i, d := range m.Digests {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%w: part %d digest: %v", ErrInvalidPartManifest, i, err)
		}
	}
	switch m.Compression {
	case CompressionNone, CompressionZstd, CompressionLZ4:
	default:
		return fmt.Errorf("%w: unknown compression %q", ErrInvalidPartManifest, m.Compression)
	}
	if m.OriginalSize != nil && *m.OriginalSize < 0 {
		return fmt.Errorf("%w: negative original_size", ErrInvalidPartManifest)
	}
	if m.PartSize < 0 {
		return fmt.Errorf("%w: negative part_size", ErrInvalidPartManifest)
	}
	return nil
}

// Names returns the part names in concatenation order.
func (m *PartManifest) Names() []string {
	if len(m.Parts) > 0 {
		return m.Parts
	}
	return m.Files
}

// Digest returns the expected digest of part i, if one is recorded.
func (m *PartManifest) Digest(i int) (digest.Digest, bool) {
	if i < 0 || i >= len(m.Digests) {
		return "", false
	}
	return m.Digests[i], true
}

// CompressionOf returns the compression applied to part i.
func (m *PartManifest) CompressionOf(i int) Compression {
	if m.Compression != CompressionNone {
		return m.Compression
	}
	names := m.Names()
	if i < 0 || i >= len(names) {
		return CompressionNone
	}
	return compressionFromName(names[i])
}

// ResolvePart returns the fetcher-relative name of part i of the store
// whose manifest was read from manifestName.
func (m *PartManifest) ResolvePart(manifestName string, i int) string {
	dir := path.Dir(manifestName)
	if dir == "." {
		return m.Names()[i]
	}
	return path.Join(dir, m.Names()[i])
}

func compressionFromName(name string) Compression {
	switch {
	case strings.HasSuffix(name, ".zst"), strings.HasSuffix(name, ".zstd"):
		return CompressionZstd
	case strings.HasSuffix(name, ".lz4"):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

func validPartName(name string) bool {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return false
	}
	for elem := range strings.SplitSeq(name, "/") {
		if elem == "" || elem == "." || elem == ".." {
			return false
		}
	}
	return true
}
