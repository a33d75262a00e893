package homemap

import (
	"fmt"
	"sync/atomic"
)

// Kind identifies one of the three stores held by a Registry.
type Kind uint8

const (
	// KindMap is the path map: packed (offset, length, name) records.
	KindMap Kind = iota
	// KindTags is the tags store: size and mime records.
	KindTags
	// KindIndex is the preview index: length-prefixed payloads.
	KindIndex
)

// Kinds lists every store kind in load order.
var Kinds = []Kind{KindMap, KindTags, KindIndex}

// String returns the lowercase store name.
func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindTags:
		return "tags"
	case KindIndex:
		return "index"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// stores is an immutable snapshot of the registered buffers.
type stores struct {
	m     []byte
	tags  []byte
	index []byte
}

var emptyStores = &stores{}

// Registry holds the three externally owned store buffers.
//
// Loading never copies or validates a buffer, and the previous buffer for a
// kind is simply released to its owner. Buffers must not be modified after
// they are loaded.
//
// Each load publishes a new snapshot atomically, so a reload concurrent with
// queries never exposes a torn view. Callers that need all three stores to
// change together should build a new Registry and swap engines instead.
//
// The zero value is an empty registry ready for use.
type Registry struct {
	cur atomic.Pointer[stores]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// LoadMap registers the path map buffer.
func (r *Registry) LoadMap(data []byte) {
	r.Load(KindMap, data)
}

// LoadTags registers the tags store buffer.
func (r *Registry) LoadTags(data []byte) {
	r.Load(KindTags, data)
}

// LoadIndex registers the preview index buffer.
func (r *Registry) LoadIndex(data []byte) {
	r.Load(KindIndex, data)
}

// Load replaces the buffer registered for kind. Unknown kinds are ignored.
func (r *Registry) Load(kind Kind, data []byte) {
	for {
		old := r.cur.Load()
		next := *r.snapshotOf(old)
		switch kind {
		case KindMap:
			next.m = data
		case KindTags:
			next.tags = data
		case KindIndex:
			next.index = data
		default:
			return
		}
		if r.cur.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Map returns the registered path map buffer.
func (r *Registry) Map() []byte {
	return r.snapshot().m
}

// Tags returns the registered tags store buffer.
func (r *Registry) Tags() []byte {
	return r.snapshot().tags
}

// Index returns the registered preview index buffer.
func (r *Registry) Index() []byte {
	return r.snapshot().index
}

// Len returns the registered length of the buffer for kind.
func (r *Registry) Len(kind Kind) int {
	s := r.snapshot()
	switch kind {
	case KindMap:
		return len(s.m)
	case KindTags:
		return len(s.tags)
	case KindIndex:
		return len(s.index)
	default:
		return 0
	}
}

func (r *Registry) snapshot() *stores {
	return r.snapshotOf(r.cur.Load())
}

func (r *Registry) snapshotOf(s *stores) *stores {
	if s == nil {
		return emptyStores
	}
	return s
}
