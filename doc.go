// Package homemap queries a home map: a packed path manifest plus two
// companion stores holding per-file size/mime tags and content previews.
//
// The three stores are produced elsewhere and handed to a [Registry] as raw
// byte slices. An [Engine] answers queries by scanning those bytes directly;
// nothing is parsed into an intermediate structure, so loading is free and
// every query is a linear scan of the map.
//
// # Store layouts
//
// All integers are little-endian.
//
//   - Map: repeated (uint32 offset, uint16 name length, name bytes), packed
//     with no padding and no count. The buffer length bounds the scan.
//   - Tags: at an offset, uint64 size followed by a NUL-terminated mime string.
//   - Index: at an offset, uint32 payload length followed by the payload.
//
// Which store a map offset refers to is a convention of the producer. Stores
// built by the reference producer align each file's tag and preview records
// so that one offset serves both.
//
// # Quick Start
//
//	reg := homemap.NewRegistry()
//	reg.LoadMap(mapData)
//	reg.LoadTags(tagsData)
//	reg.LoadIndex(indexData)
//
//	e := homemap.New(reg)
//	off, ok, err := e.Lookup("/home/me/notes.txt")
//	if err != nil || !ok {
//	    return err
//	}
//	tag, err := e.Tag(off)
//	preview, err := e.PreviewText(off)
//
// Stores can be fetched, verified and reassembled from split parts with the
// [github.com/meigma/homemap/source] package.
package homemap
