package survey

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CatalogEntry is one image file with its stable 0-based position in the
// sorted source directory.
type CatalogEntry struct {
	Index int
	File  string
	Path  string
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
}

// LoadCatalog lists the supported image files under dir, sorted by name for
// determinism and truncated to maxN. A missing or image-free directory is a
// fatal precondition for the survey, reported as ErrEmptyCatalog.
func LoadCatalog(dir string, maxN int) ([]CatalogEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrEmptyCatalog
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if maxN > 0 && len(names) > maxN {
		names = names[:maxN]
	}
	if len(names) == 0 {
		return nil, ErrEmptyCatalog
	}

	catalog := make([]CatalogEntry, 0, len(names))
	for idx, name := range names {
		catalog = append(catalog, CatalogEntry{
			Index: idx,
			File:  name,
			Path:  filepath.Join(dir, name),
		})
	}
	return catalog, nil
}
