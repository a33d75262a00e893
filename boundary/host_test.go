package boundary

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/homemap"
	"github.com/meigma/homemap/internal/testutil"
)

func newTestHost(t *testing.T, files []testutil.TestFile, opts ...Option) (*Host, testutil.Stores) {
	t.Helper()
	st := testutil.BuildTestStores(t, files)
	h := NewHost(opts...)
	h.LoadMap(st.Map)
	h.LoadTags(st.Tags)
	h.LoadIndex(st.Index)
	return h, st
}

func TestHostLookupPath(t *testing.T) {
	t.Parallel()

	h := NewHost()
	h.LoadMap(testutil.BuildTestMap(t, []testutil.TestEntry{
		{Path: "a.txt", Offset: 10},
		{Path: "a.md", Offset: 20},
		{Path: "b.txt", Offset: 30},
	}))

	scratch := h.Staging().Scratch()
	n := copy(scratch, "a.txt")
	off, err := h.LookupPath(scratch[:n])
	require.NoError(t, err)
	assert.Equal(t, uint32(10), off)

	off, err = h.LookupPath([]byte("c.txt"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFFFFFF), off)

	count, err := h.PrefixCount([]byte("a."))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), count)

	count, err = h.PrefixCount([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), count)
}

func TestHostListPrefix(t *testing.T) {
	t.Parallel()

	h, _ := newTestHost(t, []testutil.TestFile{
		{Path: "/home/me/b"},
		{Path: "/home/me/a"},
		{Path: "/home/you/c"},
	})

	count, err := h.ListPrefix([]byte("/home/me/"))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), count)
	assert.Equal(t, []string{"/home/me/b", "/home/me/a"}, h.Listed(count))

	// Slots are fixed-stride and NUL-terminated.
	buf := h.Staging().PrefixBuf()
	assert.Equal(t, "/home/me/a\x00", string(buf[SlotSize:SlotSize+len("/home/me/a")+1]))

	total, err := h.PrefixCount([]byte("/home/"))
	require.NoError(t, err)
	listed, err := h.ListPrefix([]byte("/home/"))
	require.NoError(t, err)
	assert.Equal(t, total, listed)

	// A later call overwrites earlier results.
	count, err = h.ListPrefix([]byte("/home/you/"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/home/you/c"}, h.Listed(count))
}

func TestHostListPrefixSlotOverflow(t *testing.T) {
	t.Parallel()

	maxName := "/" + strings.Repeat("n", SlotSize-2)
	tooLong := "/" + strings.Repeat("x", SlotSize-1)
	h, _ := newTestHost(t, []testutil.TestFile{{Path: maxName}, {Path: tooLong}})

	count, err := h.ListPrefix([]byte("/n"))
	require.NoError(t, err)
	assert.Equal(t, []string{maxName}, h.Listed(count))

	_, err = h.ListPrefix([]byte("/"))
	require.ErrorIs(t, err, ErrSlotOverflow)

	// The overflow never spills into the next slot.
	next, ok := h.Staging().Slot(1)
	require.True(t, ok)
	assert.Empty(t, next)
}

func TestHostListPrefixCapacity(t *testing.T) {
	t.Parallel()

	h, _ := newTestHost(t, []testutil.TestFile{{Path: "a"}, {Path: "b"}, {Path: "c"}},
		WithStaging(NewStaging(2)))

	_, err := h.ListPrefix(nil)
	require.ErrorIs(t, err, ErrPrefixCapacity)

	count, err := h.ListPrefix([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), count)
	assert.Len(t, h.Staging().PrefixBuf(), 2*SlotSize)
}

func TestHostTags(t *testing.T) {
	t.Parallel()

	h := NewHost()
	h.LoadTags(testutil.TagRecord(1024, "text/plain"))

	size, err := h.GetSize(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1024), size)

	mime, err := h.GetMime(0)
	require.NoError(t, err)
	assert.Equal(t, []byte("text/plain\x00"), mime)

	_, err = h.GetSize(100)
	require.ErrorIs(t, err, homemap.ErrOffsetOutOfRange)
}

func TestHostReadPreview(t *testing.T) {
	t.Parallel()

	payload := []byte("0123456789")
	h := NewHost()
	h.LoadIndex(testutil.PreviewRecord(payload))

	n, err := h.ReadPreview(0, 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), n)
	assert.Equal(t, payload[:5], h.Preview(n))

	n, err = h.ReadPreview(0, 100)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), n)
	assert.Equal(t, payload, h.Preview(n))

	n, err = h.ReadPreview(uint32(len(payload)+1), 100)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHostReadPreviewClampsToBuffer(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("p"), PreviewSize+100)
	h := NewHost()
	h.LoadIndex(testutil.PreviewRecord(payload))

	n, err := h.ReadPreview(0, 0xFFFFFFFF)
	require.NoError(t, err)
	assert.Equal(t, uint32(PreviewSize), n)
	assert.Len(t, h.Preview(n), PreviewSize)
}

func TestHostMalformedMap(t *testing.T) {
	t.Parallel()

	h := NewHost()
	h.LoadMap([]byte{0, 0, 0, 0, 5})

	_, err := h.LookupPath([]byte("x"))
	require.ErrorIs(t, err, homemap.ErrTruncatedEntry)

	_, err = h.ListPrefix(nil)
	require.ErrorIs(t, err, homemap.ErrTruncatedEntry)
}

func TestStagingLazyAllocation(t *testing.T) {
	t.Parallel()

	var s Staging
	assert.Nil(t, s.scratch)
	assert.Len(t, s.Scratch(), ScratchSize)
	assert.Len(t, s.PreviewBuf(), PreviewSize)
	assert.Equal(t, MaxPrefixEntries, s.MaxEntries())

	first := s.Scratch()
	first[0] = 'x'
	assert.Equal(t, byte('x'), s.Scratch()[0], "buffers are allocated once")

	small := NewStaging(3)
	_, ok := small.Slot(3)
	assert.False(t, ok)
	_, ok = small.Slot(-1)
	assert.False(t, ok)
}
