package homemap

import (
	"iter"
	"log/slog"
	"math"
	"strings"

	"github.com/meigma/homemap/internal/manifest"
)

// Entry is one map record. Its Name aliases the map buffer.
type Entry = manifest.Entry

// Tag is the size and mime type recorded for a file in the tags store.
type Tag struct {
	Size uint64
	Mime string
}

// Engine answers queries against the stores held by a Registry.
//
// Each call reads the registry once and holds no state between calls, so an
// Engine is safe for concurrent use and observes reloads on the next call.
// Results never alias shared scratch space: slices and strings returned by
// Engine methods are owned by the caller unless documented otherwise.
type Engine struct {
	reg          *Registry
	logger       *slog.Logger
	previewBytes uint32
}

// New returns an Engine reading from reg. A nil reg gets an empty Registry.
func New(reg *Registry, opts ...Option) *Engine {
	if reg == nil {
		reg = NewRegistry()
	}
	e := &Engine{
		reg:          reg,
		logger:       slog.New(slog.DiscardHandler),
		previewBytes: DefaultPreviewBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine reads from.
func (e *Engine) Registry() *Registry {
	return e.reg
}

func (e *Engine) pathMap() manifest.Map {
	return manifest.NewMap(e.reg.Map())
}

func (e *Engine) tags() manifest.Tags {
	return manifest.NewTags(e.reg.Tags())
}

func (e *Engine) previews() manifest.Previews {
	return manifest.NewPreviews(e.reg.Index())
}

// fail logs a decode failure and returns err unchanged.
func (e *Engine) fail(op string, err error) error {
	e.logger.Warn("store decode failed", slog.String("op", op), slog.Any("error", err))
	return err
}

// Lookup returns the target offset recorded for name.
//
// Matching is exact and case-sensitive with no path normalization. If the map
// holds the same name more than once, the first record in storage order wins.
// ok is false when no record matches.
func (e *Engine) Lookup(name string) (offset uint32, ok bool, err error) {
	offset, ok, err = e.pathMap().Lookup(name)
	if err != nil {
		return NotFound, false, e.fail("lookup", err)
	}
	return offset, ok, nil
}

// LookupOffset is like Lookup but reports absence with the NotFound sentinel.
func (e *Engine) LookupOffset(name string) (uint32, error) {
	offset, _, err := e.Lookup(name)
	return offset, err
}

// CountPrefix returns the number of map records whose name begins with
// prefix. An empty prefix counts every record.
func (e *Engine) CountPrefix(prefix string) (int, error) {
	n, err := e.pathMap().CountPrefix(prefix)
	if err != nil {
		return 0, e.fail("count_prefix", err)
	}
	return n, nil
}

// ListPrefix returns the names of map records beginning with prefix, in
// storage order. Names are returned whole whatever their length.
func (e *Engine) ListPrefix(prefix string) ([]string, error) {
	names, err := e.pathMap().AppendPrefix(nil, prefix)
	if err != nil {
		return nil, e.fail("list_prefix", err)
	}
	return names, nil
}

// Len returns the number of records in the map.
func (e *Engine) Len() (int, error) {
	return e.CountPrefix("")
}

// Entries returns an iterator over every map record in storage order.
//
// Entry names alias the map buffer that was registered when iteration began.
// A decode failure is yielded once and ends the iteration.
func (e *Engine) Entries() iter.Seq2[Entry, error] {
	return e.pathMap().Entries()
}

// EntriesWithPrefix returns an iterator over map records whose name begins
// with prefix, in storage order.
func (e *Engine) EntriesWithPrefix(prefix string) iter.Seq2[Entry, error] {
	return e.pathMap().EntriesWithPrefix(prefix)
}

// Size returns the file size recorded in the tags store at offset.
func (e *Engine) Size(offset uint32) (uint64, error) {
	size, err := e.tags().Size(offset)
	if err != nil {
		return 0, e.fail("get_size", err)
	}
	return size, nil
}

// Mime returns the mime type recorded in the tags store at offset.
func (e *Engine) Mime(offset uint32) (string, error) {
	mime, err := e.tags().Mime(offset)
	if err != nil {
		return "", e.fail("get_mime", err)
	}
	return string(mime), nil
}

// MimeBytes is like Mime but returns a slice aliasing the tags buffer.
func (e *Engine) MimeBytes(offset uint32) ([]byte, error) {
	mime, err := e.tags().Mime(offset)
	if err != nil {
		return nil, e.fail("get_mime", err)
	}
	return mime, nil
}

// Tag returns the size and mime type recorded at offset.
func (e *Engine) Tag(offset uint32) (Tag, error) {
	t := e.tags()
	size, err := t.Size(offset)
	if err != nil {
		return Tag{}, e.fail("get_tag", err)
	}
	mime, err := t.Mime(offset)
	if err != nil {
		return Tag{}, e.fail("get_tag", err)
	}
	return Tag{Size: size, Mime: string(mime)}, nil
}

// Stat looks up name and returns its tag. ok is false when name is absent.
func (e *Engine) Stat(name string) (tag Tag, ok bool, err error) {
	offset, ok, err := e.Lookup(name)
	if err != nil || !ok {
		return Tag{}, ok, err
	}
	tag, err = e.Tag(offset)
	if err != nil {
		return Tag{}, false, err
	}
	return tag, true, nil
}

// Preview returns a copy of the preview payload stored at offset, at most
// maxLength bytes long.
//
// An offset whose 4-byte length prefix does not fit in the index store yields
// an empty preview and no error.
func (e *Engine) Preview(offset, maxLength uint32) ([]byte, error) {
	payload, err := e.previews().Payload(offset, maxLength)
	if err != nil {
		return nil, e.fail("read_preview", err)
	}
	if len(payload) == 0 {
		return nil, nil
	}
	return append([]byte(nil), payload...), nil
}

// PreviewLen returns the full payload length recorded at offset, before any
// clamping. ok is false when the length prefix does not fit in the index
// store.
func (e *Engine) PreviewLen(offset uint32) (n uint32, ok bool) {
	return e.previews().PayloadLen(offset)
}

// PreviewInto copies the preview payload stored at offset into dst and
// returns the number of bytes copied. At most len(dst) bytes are copied.
func (e *Engine) PreviewInto(dst []byte, offset uint32) (int, error) {
	maxLength := uint32(math.MaxUint32)
	if uint64(len(dst)) < uint64(maxLength) {
		maxLength = uint32(len(dst)) //nolint:gosec // bounded by the check above
	}
	payload, err := e.previews().Payload(offset, maxLength)
	if err != nil {
		return 0, e.fail("read_preview", err)
	}
	return copy(dst, payload), nil
}

// PreviewText returns the preview stored at offset as text, limited to the
// engine's preview length. Invalid UTF-8, including a multi-byte sequence cut
// by the limit, is replaced with U+FFFD.
func (e *Engine) PreviewText(offset uint32) (string, error) {
	payload, err := e.previews().Payload(offset, e.previewBytes)
	if err != nil {
		return "", e.fail("read_preview", err)
	}
	return strings.ToValidUTF8(string(payload), "\uFFFD"), nil
}
