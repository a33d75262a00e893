// Package disk provides a digest-addressed disk cache for store parts.
package disk
