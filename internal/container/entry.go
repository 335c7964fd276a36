// internal/container/entry.go
package container

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Extension is the canonical extension of a comic book container
const Extension = ".cbz"

// UnixMode is recorded on every packed entry regardless of the source permissions
const UnixMode fs.FileMode = 0o755

var (
	// ErrFormat is returned when a file is not a readable zip container
	ErrFormat = errors.New("not a valid zip container")

	// ErrInvalidPath is returned for entry or archive names that cannot be represented safely
	ErrInvalidPath = errors.New("invalid entry path")

	// ErrInvalidLevel is returned when the deflate level is outside 1-9
	ErrInvalidLevel = errors.New("deflate level must be between 1 and 9")
)

// Entry is one leaf file of a container
type Entry struct {
	Archive string // Identifier of the owning archive (its file name)
	Path    string // Slash-separated path inside the archive
	Data    []byte
}

// Size returns the payload size in bytes
func (e Entry) Size() uint64 {
	return uint64(len(e.Data))
}

// Archive is the extracted content of one container file
type Archive struct {
	Name    string  // File name of the container, used as entry identifier
	Path    string  // Path the container was read from
	Size    uint64  // On-disk size of the container
	Entries []Entry // Leaf entries in central directory order
	Skipped []error // Entries dropped because their path could not be represented
}

// Packed is a serialized container ready to be persisted
type Packed struct {
	Name string
	Data []byte
}

// HasExtension reports whether path carries the container extension (case-insensitive)
func HasExtension(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}

// ValidPath reports whether name is usable as an entry path:
// valid UTF-8, relative, slash-separated and free of "." or ".." elements.
func ValidPath(name string) bool {
	return utf8.ValidString(name) && fs.ValidPath(name) && name != "."
}
