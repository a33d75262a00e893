// Package boundary exposes a home map through a flat call surface for
// embedding hosts that exchange data through shared memory, such as a
// WebAssembly module driven from JavaScript.
//
// A [Host] owns one registry and a set of lazily allocated staging buffers.
// Query results are written into those buffers and the host reads them back
// directly, so each result is only valid until the next call of the same
// kind. Callers must serialize access to a Host.
//
// Unlike the library API in package homemap, results that do not fit a
// staging buffer are reported as errors rather than truncated.
package boundary
