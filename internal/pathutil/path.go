// Package pathutil provides path manipulation for slash-separated map names.
package pathutil

import "strings"

// DirPrefix converts a cleaned directory to its child prefix form.
// The empty directory and "/" are returned unchanged; every other directory
// gets a trailing "/" so that only its children match.
func DirPrefix(dir string) string {
	if dir == "" || dir == "/" {
		return dir
	}
	return dir + "/"
}

// Child extracts the immediate child name from a full path given a prefix.
// Returns the child name and whether it's a subdirectory (has more path components).
// If path doesn't have the prefix, behavior is undefined.
func Child(path, prefix string) (name string, isSubDir bool) {
	relPath := strings.TrimPrefix(path, prefix)
	if idx := strings.Index(relPath, "/"); idx >= 0 {
		return relPath[:idx], true
	}
	return relPath, false
}
