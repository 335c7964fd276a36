// pkg/recompress/discover.go
package recompress

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/creativeyann17/go-cbzpack/internal/container"
)

// DiscoverOptions tunes archive discovery
type DiscoverOptions struct {
	// Exclude is a directory skipped entirely (typically the staging directory)
	Exclude string

	// UseIgnoreFiles honors .cbzignore files
	UseIgnoreFiles bool
}

// Discover walks root recursively, following symlinks, and returns every .cbz file
// sorted lexicographically. Only an unreadable root is an error; unreadable
// subdirectories are skipped.
func Discover(root string, opts *DiscoverOptions) ([]string, error) {
	paths, _, err := discover(root, opts)
	return paths, err
}

type walker struct {
	exclude  string
	ignore   *ignoreMatcher
	visited  map[string]bool // Resolved directories, guards symlink cycles
	paths    []string
	warnings []error
}

// discover is Discover plus the non-fatal problems met along the way
func discover(root string, opts *DiscoverOptions) ([]string, []error, error) {
	if opts == nil {
		opts = &DiscoverOptions{}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("read root: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}

	w := &walker{
		visited: make(map[string]bool),
	}
	if opts.Exclude != "" {
		if abs, err := filepath.Abs(opts.Exclude); err == nil {
			w.exclude = abs
		}
	}
	if opts.UseIgnoreFiles {
		w.ignore = newIgnoreMatcher()
	}

	if err := w.walk(root, "", true); err != nil {
		return nil, nil, fmt.Errorf("read root: %w", err)
	}

	sort.Strings(w.paths)
	return w.paths, w.warnings, nil
}

// walk visits dir; errors are returned only for the root, recorded otherwise
func (w *walker) walk(dir, rel string, isRoot bool) error {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		if isRoot {
			return err
		}
		w.warn(dir, err)
		return nil
	}
	if w.visited[real] {
		return nil
	}
	w.visited[real] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		if isRoot {
			return err
		}
		w.warn(dir, err)
		return nil
	}

	if w.ignore != nil {
		if err := w.ignore.load(dir, rel); err != nil {
			w.warn(filepath.Join(dir, IgnoreFileName), err)
		}
	}

	for _, de := range entries {
		path := filepath.Join(dir, de.Name())
		relPath := filepath.Join(rel, de.Name())

		mode := de.Type()
		if mode&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				w.warn(path, err)
				continue
			}
			mode = target.Mode().Type()
		}

		if mode.IsDir() {
			if w.excluded(path) || w.ignore.ShouldIgnoreDir(relPath) {
				continue
			}
			w.walk(path, relPath, false)
			continue
		}

		if !mode.IsRegular() || !container.HasExtension(de.Name()) {
			continue
		}
		if w.ignore.ShouldIgnore(relPath) {
			continue
		}
		w.paths = append(w.paths, path)
	}

	return nil
}

func (w *walker) excluded(path string) bool {
	if w.exclude == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return abs == w.exclude
}

func (w *walker) warn(path string, err error) {
	w.warnings = append(w.warnings, newArchiveError(path, "", StageDiscover, err))
}
