// Package texture locates the image files referenced by exported meshes and
// reads their dimensions.
package texture

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Index maps lowercase file names to paths under a set of search directories.
// When two directories hold the same name, the earlier directory wins.
type Index struct {
	entries map[string]string // lowercase base name → full path
}

// BuildIndex walks every directory in dirs recursively. Missing or
// unreadable directories are skipped.
func BuildIndex(dirs []string) *Index {
	idx := &Index{entries: make(map[string]string)}

	for _, dir := range dirs {
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if !Supported(path) {
				return nil
			}
			key := strings.ToLower(d.Name())
			if _, exists := idx.entries[key]; !exists {
				idx.entries[key] = path
			}
			return nil
		})
	}

	return idx
}

// ResolvePath returns the indexed path for an image name, or ("", false).
// Directory components of the name are ignored, in either slash style.
func (idx *Index) ResolvePath(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	key := strings.ToLower(filepath.Base(name))

	path, ok := idx.entries[key]
	return path, ok
}

// Len returns the number of indexed images.
func (idx *Index) Len() int {
	return len(idx.entries)
}
