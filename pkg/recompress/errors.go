// pkg/recompress/errors.go
package recompress

import (
	"errors"
	"fmt"

	"github.com/creativeyann17/go-cbzpack/internal/container"
	"github.com/creativeyann17/go-cbzpack/internal/transcode"
)

var (
	// ErrInputRequired is returned when neither an input path nor a file list is set
	ErrInputRequired = errors.New("input path is required")

	// ErrStagingRequired is returned when no staging directory can be derived
	ErrStagingRequired = errors.New("staging directory is required when no input path is set")

	// ErrInvalidLevel is returned when the deflate level is out of range
	ErrInvalidLevel = errors.New("compression level must be between 1 and 9")

	// ErrNotDirectory is returned when the input path is not a directory
	ErrNotDirectory = errors.New("input path is not a directory")

	// ErrUnsupportedType is returned for inputs that are not .cbz containers
	ErrUnsupportedType = errors.New("unsupported file type, only .cbz archives are supported")

	// ErrDuplicateArchive is returned when every entry of an archive was already processed
	ErrDuplicateArchive = errors.New("all entries were already processed")
)

// Kind classifies an ArchiveError
type Kind int

const (
	KindIO Kind = iota
	KindFormat
	KindUnsupported
	KindDuplicate
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindIO:
		return "i/o"
	case KindFormat:
		return "format"
	case KindUnsupported:
		return "unsupported"
	case KindDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Stage names the pipeline step an error happened in
type Stage string

const (
	StageDiscover  Stage = "discover"
	StageExtract   Stage = "extract"
	StageFilter    Stage = "filter"
	StageTranscode Stage = "transcode"
	StageRepack    Stage = "repack"
	StagePersist   Stage = "persist"
	StageBundle    Stage = "bundle"
)

// ArchiveError is the tagged error reported for one failed operation
type ArchiveError struct {
	Archive string // Archive identifier (file name) or path
	Entry   string // Entry path, empty for archive-level failures
	Stage   Stage
	Kind    Kind
	Err     error
}

func (e *ArchiveError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("%s: %s: %s: %s error: %v", e.Archive, e.Entry, e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s error: %v", e.Archive, e.Stage, e.Kind, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// newArchiveError tags err with its archive, stage and derived kind
func newArchiveError(archive, entry string, stage Stage, err error) *ArchiveError {
	return &ArchiveError{
		Archive: archive,
		Entry:   entry,
		Stage:   stage,
		Kind:    classify(err),
		Err:     err,
	}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrUnsupportedType):
		return KindUnsupported
	case errors.Is(err, ErrDuplicateArchive):
		return KindDuplicate
	case errors.Is(err, container.ErrFormat),
		errors.Is(err, container.ErrInvalidPath),
		errors.Is(err, transcode.ErrDecode):
		return KindFormat
	default:
		return KindIO
	}
}
