package file

import (
	"fmt"
	"path/filepath"
	"sort"
)

// FindGlob returns files under dir matching the glob pattern, sorted by name.
func FindGlob(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}
