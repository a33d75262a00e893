package boundary

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/meigma/homemap"
	"github.com/meigma/homemap/internal/manifest"
)

// Errors reported when a result does not fit the staging buffers.
var (
	// ErrSlotOverflow is returned when a listed name plus its terminator is
	// longer than SlotSize.
	ErrSlotOverflow = errors.New("homemap: name does not fit a prefix slot")

	// ErrPrefixCapacity is returned when more names match a prefix than the
	// prefix buffer has slots.
	ErrPrefixCapacity = errors.New("homemap: prefix buffer full")
)

// Host binds a registry, a query engine and staging buffers into the flat
// call surface of the boundary.
type Host struct {
	reg     *homemap.Registry
	engine  *homemap.Engine
	staging *Staging
	logger  *slog.Logger
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger passed to the query engine.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithStaging sets the staging buffers used for results.
func WithStaging(s *Staging) Option {
	return func(h *Host) {
		if s != nil {
			h.staging = s
		}
	}
}

// NewHost returns a Host with an empty registry.
func NewHost(opts ...Option) *Host {
	h := &Host{
		reg:     homemap.NewRegistry(),
		staging: &Staging{},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.engine = homemap.New(h.reg, homemap.WithLogger(h.logger))
	return h
}

// Engine returns the query engine behind the host.
func (h *Host) Engine() *homemap.Engine {
	return h.engine
}

// Staging returns the host's staging buffers.
func (h *Host) Staging() *Staging {
	return h.staging
}

// LoadMap registers the path map buffer.
func (h *Host) LoadMap(data []byte) { h.reg.LoadMap(data) }

// LoadTags registers the tags store buffer.
func (h *Host) LoadTags(data []byte) { h.reg.LoadTags(data) }

// LoadIndex registers the preview index buffer.
func (h *Host) LoadIndex(data []byte) { h.reg.LoadIndex(data) }

// LookupPath returns the target offset recorded for name, or
// homemap.NotFound.
func (h *Host) LookupPath(name []byte) (uint32, error) {
	return h.engine.LookupOffset(string(name))
}

// PrefixCount returns the number of map records beginning with prefix.
func (h *Host) PrefixCount(prefix []byte) (uint32, error) {
	n, err := h.engine.CountPrefix(string(prefix))
	if err != nil {
		return 0, err
	}
	return uint32(n), nil //nolint:gosec // bounded by the map size
}

// ListPrefix writes every map record name beginning with prefix into the
// prefix buffer, one NUL-terminated name per SlotSize-byte slot in storage
// order, and returns the number of slots written.
//
// A name that does not fit its slot, or a match count above the buffer's
// capacity, fails the whole call with ErrSlotOverflow or ErrPrefixCapacity.
// Slots written before the failure are left in place.
func (h *Host) ListPrefix(prefix []byte) (uint32, error) {
	out := h.staging.PrefixBuf()
	capacity := h.staging.MaxEntries()

	count := 0
	for ent, err := range h.engine.EntriesWithPrefix(string(prefix)) {
		if err != nil {
			return 0, err
		}
		if count == capacity {
			return 0, fmt.Errorf("%w: more than %d matches", ErrPrefixCapacity, capacity)
		}
		if len(ent.Name) >= SlotSize {
			return 0, fmt.Errorf("%w: %d-byte name %.32q...", ErrSlotOverflow, len(ent.Name), ent.Name)
		}
		slot := out[count*SlotSize : (count+1)*SlotSize]
		n := copy(slot, ent.Name)
		slot[n] = 0
		count++
	}
	return uint32(count), nil //nolint:gosec // bounded by capacity
}

// GetSize returns the file size recorded in the tags store at offset.
func (h *Host) GetSize(offset uint32) (uint64, error) {
	return h.engine.Size(offset)
}

// GetMime returns the NUL-terminated mime string recorded at offset. The
// returned slice aliases the tags buffer and includes the terminator.
func (h *Host) GetMime(offset uint32) ([]byte, error) {
	return manifest.NewTags(h.reg.Tags()).MimeZ(offset)
}

// ReadPreview copies the preview payload at offset into the preview buffer
// and returns the number of bytes copied: the stored length clamped to
// maxLength and to PreviewSize. Zero is returned when the record header lies
// outside the index store.
func (h *Host) ReadPreview(offset, maxLength uint32) (uint32, error) {
	out := h.staging.PreviewBuf()
	if maxLength < uint32(len(out)) {
		out = out[:maxLength]
	}
	n, err := h.engine.PreviewInto(out, offset)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil //nolint:gosec // bounded by PreviewSize
}

// Preview returns the bytes written by the last ReadPreview call that
// returned n.
func (h *Host) Preview(n uint32) []byte {
	return h.staging.PreviewBuf()[:min(int(n), PreviewSize)]
}

// Listed returns the names written by the last ListPrefix call that
// returned count. The strings are copies.
func (h *Host) Listed(count uint32) []string {
	names := make([]string, 0, count)
	for i := range int(count) {
		name, ok := h.staging.Slot(i)
		if !ok {
			break
		}
		names = append(names, string(name))
	}
	return names
}
