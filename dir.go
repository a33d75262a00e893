package homemap

import (
	"slices"
	"strings"

	"github.com/meigma/homemap/internal/pathutil"
)

// DirEntry is an immediate child of a directory listed with ReadDir.
type DirEntry struct {
	// Name is the child's final path element.
	Name string

	// IsDir reports whether any map record lies beneath the child.
	IsDir bool

	// Offset is the target offset of the record named exactly after the
	// child, or NotFound when the child only exists as a parent of other
	// records.
	Offset uint32
}

// ReadDir lists the immediate children of dir, sorted by name.
//
// The map has no directory records of its own, so children are derived from
// the names that begin with dir followed by a slash. A name that both has its
// own record and prefixes deeper records is reported once, as a directory
// carrying the record's offset. dir is cleaned with CleanDir first.
func (e *Engine) ReadDir(dir string) ([]DirEntry, error) {
	prefix := pathutil.DirPrefix(CleanDir(dir))

	var out []DirEntry
	seen := make(map[string]int)
	for ent, err := range e.pathMap().EntriesWithPrefix(prefix) {
		if err != nil {
			return nil, e.fail("read_dir", err)
		}
		name, isSub := pathutil.Child(string(ent.Name), prefix)
		if name == "" {
			continue
		}
		i, ok := seen[name]
		if !ok {
			i = len(out)
			seen[name] = i
			out = append(out, DirEntry{Name: name, Offset: NotFound})
		}
		if isSub {
			out[i].IsDir = true
		} else if out[i].Offset == NotFound {
			out[i].Offset = ent.Offset
		}
	}

	slices.SortFunc(out, func(a, b DirEntry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}
