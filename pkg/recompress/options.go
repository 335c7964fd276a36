// pkg/recompress/options.go
package recompress

import (
	"io"
	"path/filepath"
	"runtime"

	"github.com/creativeyann17/go-cbzpack/internal/container"
)

// StagingDirName is the subdirectory of the input root receiving repacked archives
const StagingDirName = "tmp"

// DefaultCacheSize bounds the transcoded page cache
const DefaultCacheSize = 64 << 20

// IgnoreFileName holds gitignore-style patterns excluding archives from discovery
const IgnoreFileName = ".cbzignore"

// Options configures a recompression run
type Options struct {
	// Root directory walked for .cbz archives
	// Ignored for discovery if Files is provided
	InputPath string

	// Files lets library users provide an explicit list of archives
	// Every path must carry the .cbz extension or the run fails with ErrUnsupportedType
	// This option is for library use only (not exposed in CLI)
	Files []string

	// Directory receiving repacked archives
	// Default: <InputPath>/tmp
	StagingDir string

	// Size of the image transcoding worker pool
	// Default: runtime.NumCPU()
	MaxThreads int

	// Number of archives read, repacked or persisted concurrently
	// Default: runtime.NumCPU()
	IOThreads int

	// Deflate level for repacked archives (1-9)
	// Default: 9
	Level int

	// KeepLarger keeps the original image bytes when the re-encoded page is larger
	// Default: false (the re-encoded page always replaces the original)
	KeepLarger bool

	// CacheSize bounds, in bytes, the cache of transcoded pages keyed by content
	// Default: DefaultCacheSize, negative disables the cache
	CacheSize int64

	// FailFast aborts the run on the first archive failure
	// Default: false (failed archives are reported and skipped)
	FailFast bool

	// UseIgnoreFiles honors .cbzignore files found while walking InputPath
	UseIgnoreFiles bool

	// BundlePath writes every staged archive into one .tar.xz bundle when set
	BundlePath string

	// DryRun runs the whole pipeline without writing anything
	DryRun bool

	// Verbose enables detailed logging
	Verbose bool

	// ProgressWriter receives progress bars (optional)
	// If nil and Quiet=false, progress goes to stdout
	ProgressWriter io.Writer

	// Quiet suppresses all output except errors
	Quiet bool
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() *Options {
	return &Options{
		MaxThreads: runtime.NumCPU(),
		IOThreads:  runtime.NumCPU(),
		Level:      container.DefaultLevel,
		CacheSize:  DefaultCacheSize,
	}
}

// Validate checks if options are valid and fills in defaults
func (o *Options) Validate() error {
	if o.InputPath == "" && len(o.Files) == 0 {
		return ErrInputRequired
	}
	if o.StagingDir == "" {
		if o.InputPath == "" {
			return ErrStagingRequired
		}
		o.StagingDir = filepath.Join(o.InputPath, StagingDirName)
	}
	if o.MaxThreads <= 0 {
		o.MaxThreads = runtime.NumCPU()
	}
	if o.IOThreads <= 0 {
		o.IOThreads = runtime.NumCPU()
	}
	if o.CacheSize == 0 {
		o.CacheSize = DefaultCacheSize
	}
	if o.Level == 0 {
		o.Level = container.DefaultLevel
	}
	if o.Level < 1 || o.Level > 9 {
		return ErrInvalidLevel
	}
	if o.Quiet {
		o.Verbose = false
	}
	return nil
}
