// pkg/verify/errors.go
package verify

import "errors"

var (
	// ErrInputRequired is returned when input path is not specified
	ErrInputRequired = errors.New("input path is required")

	// ErrInvalidMagic is returned when the file starts with neither a zip nor an xz signature
	ErrInvalidMagic = errors.New("invalid archive magic bytes")

	// ErrInvalidHeader is returned when the zip central directory cannot be read
	ErrInvalidHeader = errors.New("invalid archive header")

	// ErrDirectoryEntry is returned for explicit directory entries; repacked archives only hold leaves
	ErrDirectoryEntry = errors.New("unexpected directory entry")

	// ErrNotDeflated is returned for entries not stored with the deflate method
	ErrNotDeflated = errors.New("entry is not deflate-compressed")

	// ErrUnexpectedMode is returned when an entry does not carry the 0755 unix mode
	ErrUnexpectedMode = errors.New("unexpected entry permissions")

	// ErrInvalidPath is returned for absolute, escaping or non UTF-8 entry names
	ErrInvalidPath = errors.New("invalid entry path")

	// ErrDuplicatePath is returned when two entries share a path
	ErrDuplicatePath = errors.New("duplicate entry path")

	// ErrCorruptData is returned when decompressed data fails integrity check
	ErrCorruptData = errors.New("data corruption detected")

	// ErrTruncatedArchive is returned when archive appears truncated
	ErrTruncatedArchive = errors.New("archive appears truncated")

	// ErrUnsupportedFormat is returned for unknown archive formats
	ErrUnsupportedFormat = errors.New("unsupported archive format")
)
