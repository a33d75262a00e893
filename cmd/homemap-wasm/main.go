//go:build wasip1

// Command homemap-wasm builds the home map query core as a WebAssembly
// reactor for hosts that load the stores into linear memory themselves.
//
// Build with:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o homemap.wasm ./cmd/homemap-wasm
//
// The host allocates regions with alloc, copies each store in, registers it
// with load_map, load_tags or load_index, and reads results back out of the
// buffers returned by temp_ptr, preview_ptr and prefix_ptr. Calls must be
// serialized; every result is overwritten by the next call of its kind.
//
// Failures on malformed stores return the call's not-found value (0xFFFFFFFF
// for lookup_path, 0 elsewhere) and leave a message readable through
// error_ptr and error_len until the next failing call.
package main

import (
	"unsafe"

	"github.com/meigma/homemap"
	"github.com/meigma/homemap/boundary"
)

var (
	host = boundary.NewHost()

	// pinned keeps host-owned allocations reachable.
	pinned = make(map[uint32][]byte)

	lastErr []byte
)

func main() {}

func bytesAt(ptr, n uint32) []byte {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), n) //nolint:govet // linear memory address from the host
}

func addr(b []byte) uint32 {
	return uint32(uintptr(unsafe.Pointer(unsafe.SliceData(b))))
}

func setErr(err error) {
	lastErr = []byte(err.Error())
}

//go:wasmexport alloc
func alloc(n uint32) uint32 {
	b := make([]byte, max(n, 1))
	p := addr(b)
	pinned[p] = b
	return p
}

//go:wasmexport free
func free(ptr uint32) {
	delete(pinned, ptr)
}

//go:wasmexport load_map
func loadMap(ptr, n uint32) {
	host.LoadMap(bytesAt(ptr, n))
}

//go:wasmexport load_tags
func loadTags(ptr, n uint32) {
	host.LoadTags(bytesAt(ptr, n))
}

//go:wasmexport load_index
func loadIndex(ptr, n uint32) {
	host.LoadIndex(bytesAt(ptr, n))
}

//go:wasmexport temp_ptr
func tempPtr() uint32 {
	return addr(host.Staging().Scratch())
}

//go:wasmexport preview_ptr
func previewPtr() uint32 {
	return addr(host.Staging().PreviewBuf())
}

//go:wasmexport prefix_ptr
func prefixPtr() uint32 {
	return addr(host.Staging().PrefixBuf())
}

//go:wasmexport error_ptr
func errorPtr() uint32 {
	if len(lastErr) == 0 {
		return 0
	}
	return addr(lastErr)
}

//go:wasmexport error_len
func errorLen() uint32 {
	return uint32(len(lastErr))
}

//go:wasmexport lookup_path
func lookupPath(ptr, n uint32) uint32 {
	off, err := host.LookupPath(bytesAt(ptr, n))
	if err != nil {
		setErr(err)
		return homemap.NotFound
	}
	return off
}

//go:wasmexport prefix_count
func prefixCount(ptr, n uint32) uint32 {
	count, err := host.PrefixCount(bytesAt(ptr, n))
	if err != nil {
		setErr(err)
		return 0
	}
	return count
}

//go:wasmexport list_prefix
func listPrefix(ptr, n uint32) uint32 {
	count, err := host.ListPrefix(bytesAt(ptr, n))
	if err != nil {
		setErr(err)
		return 0
	}
	return count
}

//go:wasmexport get_size
func getSize(offset uint32) uint64 {
	size, err := host.GetSize(offset)
	if err != nil {
		setErr(err)
		return 0
	}
	return size
}

//go:wasmexport get_mime
func getMime(offset uint32) uint32 {
	mime, err := host.GetMime(offset)
	if err != nil {
		setErr(err)
		return 0
	}
	return addr(mime)
}

//go:wasmexport read_preview
func readPreview(offset, maxLength uint32) uint32 {
	n, err := host.ReadPreview(offset, maxLength)
	if err != nil {
		setErr(err)
		return 0
	}
	return n
}
