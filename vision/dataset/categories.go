package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/spf13/afero"
)

// Categories lists the fifteen object and texture categories of MVTec AD
var Categories = []string{
	"bottle", "cable", "capsule", "carpet", "grid",
	"hazelnut", "leather", "metal_nut", "pill", "screw",
	"tile", "toothbrush", "transistor", "wood", "zipper",
}

// ListCategories returns the category directories present under root,
// sorted by name. A nil fsys reads the OS filesystem.
func ListCategories(fsys afero.Fs, root string) ([]string, error) {
	cfg := Config{Root: root, Fs: fsys}

	entries, err := afero.ReadDir(cfg.fs(), cfg.root())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrPathNotFound, root, err)
		}
		return nil, fmt.Errorf("failed to list categories in %s: %w", root, err)
	}

	var categories []string
	for _, entry := range entries {
		if entry.IsDir() {
			categories = append(categories, entry.Name())
		}
	}
	sort.Strings(categories)
	return categories, nil
}
