package homemap

import "strings"

// CleanDir converts a user-provided directory to the form ReadDir matches
// against map names.
//
// It performs the following transformations:
//   - Collapses consecutive slashes: "/home//me" → "/home/me"
//   - Strips trailing slashes: "/home/me/" → "/home/me"
//   - Keeps a single leading slash when present: "//home" → "/home"
//   - Preserves the root: "/" and "///" → "/"
//   - Leaves the empty string empty, which lists the top-level elements of
//     relative names
//
// Dot segments are not resolved; map names are raw bytes and "." or ".."
// elements are matched literally.
func CleanDir(p string) string {
	if p == "" {
		return ""
	}
	rooted := strings.HasPrefix(p, "/")

	parts := strings.Split(p, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	joined := strings.Join(result, "/")
	if rooted {
		return "/" + joined
	}
	return joined
}
