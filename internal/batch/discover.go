package batch

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Discover walks the given roots recursively and returns every file whose
// extension matches one of exts (case-insensitive). Missing roots are
// reported; an existing but empty tree yields an empty slice.
func Discover(roots []string, exts ...string) ([]string, error) {
	allowed := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = struct{}{}
	}

	var items []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if _, ok := allowed[strings.ToLower(filepath.Ext(path))]; ok {
				items = append(items, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}
