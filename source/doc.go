// Package source fetches homemap store files from local disk or remote
// storage and assembles them into the byte buffers a [homemap.Registry]
// serves.
//
// A store is either a single file (for example "home.map.bin") or a set of
// parts described by "<store>.manifest.json". Part manifests come in two
// shapes:
//
//	{"file": "home.index.bin", "parts": ["home.index.bin.part_00", ...]}
//	{"files": [...], "original_size": 198765432, "part_size": 94371840}
//
// Either shape may also carry "digests" (one OCI digest per part) and
// "compression" ("zstd" or "lz4"). Part names resolve relative to the
// manifest's own location.
//
// Fetchers for individual backends live in subpackages: [Dir] and [MapFile]
// read local files, while source/http, source/oci, source/minio and
// source/s3 fetch from the network.
package source
