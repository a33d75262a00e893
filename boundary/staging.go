package boundary

// Staging buffer sizes.
const (
	// ScratchSize is the size of the general-purpose scratch buffer used to
	// pass query names in.
	ScratchSize = 4096

	// PreviewSize is the size of the preview output buffer.
	PreviewSize = 4096

	// SlotSize is the stride of one prefix-listing slot: a name plus its NUL
	// terminator must fit in it.
	SlotSize = 256

	// MaxPrefixEntries is the number of slots in the prefix output buffer.
	MaxPrefixEntries = 603172
)

// Staging holds the fixed-size buffers used to marshal results across the
// host boundary. Each buffer is allocated on first use and then reused for
// the lifetime of the Staging value.
//
// The zero value is ready for use.
type Staging struct {
	scratch []byte
	preview []byte
	prefix  []byte

	maxEntries int
}

// NewStaging returns a Staging whose prefix buffer holds maxEntries slots.
// A non-positive maxEntries uses MaxPrefixEntries.
func NewStaging(maxEntries int) *Staging {
	return &Staging{maxEntries: maxEntries}
}

// Scratch returns the scratch buffer.
func (s *Staging) Scratch() []byte {
	if s.scratch == nil {
		s.scratch = make([]byte, ScratchSize)
	}
	return s.scratch
}

// PreviewBuf returns the preview output buffer.
func (s *Staging) PreviewBuf() []byte {
	if s.preview == nil {
		s.preview = make([]byte, PreviewSize)
	}
	return s.preview
}

// PrefixBuf returns the prefix output buffer.
func (s *Staging) PrefixBuf() []byte {
	if s.prefix == nil {
		s.prefix = make([]byte, s.MaxEntries()*SlotSize)
	}
	return s.prefix
}

// MaxEntries returns the number of slots in the prefix output buffer.
func (s *Staging) MaxEntries() int {
	if s.maxEntries <= 0 {
		return MaxPrefixEntries
	}
	return s.maxEntries
}

// Slot returns the name stored in slot i of the prefix buffer, without its
// terminator. ok is false when i is outside the buffer.
func (s *Staging) Slot(i int) (name []byte, ok bool) {
	if i < 0 || i >= s.MaxEntries() {
		return nil, false
	}
	slot := s.PrefixBuf()[i*SlotSize : (i+1)*SlotSize]
	for n, b := range slot {
		if b == 0 {
			return slot[:n], true
		}
	}
	return slot, true
}
