// Package oci fetches homemap store files stored as layers of an OCI
// artifact.
//
// Each store file (or part, or part manifest) is one layer whose
// "org.opencontainers.image.title" annotation carries its name, which is how
// `oras push registry/home:latest home.map.bin home.tags.bin ...` lays files
// out. The manifest is resolved once per Fetcher and layers are fetched by
// digest, so content is verified by the registry client.
package oci
