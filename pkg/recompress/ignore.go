// pkg/recompress/ignore.go
package recompress

import (
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// ignoreMatcher applies .cbzignore files with gitignore hierarchy semantics.
// Files are loaded while the tree is walked, so symlinked directories get theirs too.
type ignoreMatcher struct {
	matchers map[string]*ignore.GitIgnore // Key: relative dir path ("" = root)
}

func newIgnoreMatcher() *ignoreMatcher {
	return &ignoreMatcher{
		matchers: make(map[string]*ignore.GitIgnore),
	}
}

// load compiles the ignore file of dir, if any. relDir is dir relative to the walk root.
func (im *ignoreMatcher) load(dir, relDir string) error {
	path := filepath.Join(dir, IgnoreFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	matcher, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return err
	}
	im.matchers[normalizeRel(relDir)] = matcher
	return nil
}

// ShouldIgnore checks if relPath matches a pattern of any .cbzignore above it
func (im *ignoreMatcher) ShouldIgnore(relPath string) bool {
	if im == nil || len(im.matchers) == 0 {
		return false
	}

	relPath = filepath.ToSlash(relPath)

	for _, dirPath := range hierarchy(relPath) {
		matcher, exists := im.matchers[dirPath]
		if !exists {
			continue
		}

		pathToCheck := relPath
		if dirPath != "" {
			pathToCheck = strings.TrimPrefix(relPath, dirPath+"/")
		}
		if matcher.MatchesPath(pathToCheck) {
			return true
		}
	}

	return false
}

// ShouldIgnoreDir only prunes directories matched by directory patterns like "drafts/",
// not by file patterns like "*.cbz" that happen to match the directory name
func (im *ignoreMatcher) ShouldIgnoreDir(relPath string) bool {
	if im == nil || len(im.matchers) == 0 {
		return false
	}
	return im.ShouldIgnore(relPath+"/") && !im.ShouldIgnore(relPath)
}

// hierarchy lists directory paths from root to the parent of relPath.
// For "a/b/vol.cbz", returns ["", "a", "a/b"]
func hierarchy(relPath string) []string {
	dirs := []string{""}

	parent := normalizeRel(filepath.Dir(relPath))
	if parent == "" {
		return dirs
	}

	current := ""
	for _, part := range strings.Split(parent, "/") {
		if part == "" {
			continue
		}
		if current == "" {
			current = part
		} else {
			current = current + "/" + part
		}
		dirs = append(dirs, current)
	}
	return dirs
}

func normalizeRel(rel string) string {
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return ""
	}
	return rel
}
