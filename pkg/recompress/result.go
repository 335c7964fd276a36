// pkg/recompress/result.go
package recompress

import "time"

// ArchiveSummary describes one persisted archive
type ArchiveSummary struct {
	Name       string // Derived archive name
	Source     string // Path the archive was read from
	Output     string // Staged output path (empty in dry-run)
	BeforeSize uint64 // Size of the source container
	AfterSize  uint64 // Size of the repacked container
	Entries    int    // Entries written
	Transcoded int    // Images replaced by their re-encoded version
}

// Result contains statistics about a recompression run
type Result struct {
	// Number of archives discovered
	ArchivesTotal int

	// Number of archives persisted
	ArchivesProcessed int

	// Total size of persisted archives before and after, in bytes
	OriginalSize   uint64
	CompressedSize uint64

	// Entry statistics
	ImagesTranscoded int // Images replaced by their re-encoded bytes
	ImagesFallback   int // Images kept as-is because decoding failed
	ImagesKept       int // Images kept because the re-encoded bytes were larger (KeepLarger)
	ImagesCached     int // Images whose output came from the page cache
	EntriesCopied    int // Non-image entries copied verbatim
	DuplicateEntries int // Entries dropped by the dedup ledger

	// Wall-clock duration of the run
	Elapsed time.Duration

	// Persisted archives in discovery order
	Archives []ArchiveSummary

	// Path of the xz bundle, when one was written
	BundlePath string

	// Cancelled is set when the run stopped early on context cancellation
	Cancelled bool

	// Archive-level failures (non-fatal unless FailFast)
	Errors []error

	// Entry-level problems that did not stop their archive
	Warnings []error
}

// CompressionRatio returns the after/before ratio as a percentage
func (r *Result) CompressionRatio() float64 {
	if r.OriginalSize == 0 {
		return 0
	}
	return float64(r.CompressedSize) / float64(r.OriginalSize) * 100
}

// SavedBytes returns the bytes saved, or 0 when the output grew
func (r *Result) SavedBytes() uint64 {
	if r.CompressedSize >= r.OriginalSize {
		return 0
	}
	return r.OriginalSize - r.CompressedSize
}

// Success returns true if every archive was persisted without errors
func (r *Result) Success() bool {
	return len(r.Errors) == 0 && !r.Cancelled && r.ArchivesProcessed == r.ArchivesTotal
}

// GetItemsTotal returns discovered archives (interface method)
func (r *Result) GetItemsTotal() int {
	return r.ArchivesTotal
}

// GetItemsProcessed returns persisted archives (interface method)
func (r *Result) GetItemsProcessed() int {
	return r.ArchivesProcessed
}

// GetErrors returns the error list (interface method)
func (r *Result) GetErrors() []error {
	return r.Errors
}

// GetOriginalSize returns the before size (interface method)
func (r *Result) GetOriginalSize() uint64 {
	return r.OriginalSize
}

// GetCompressedSize returns the after size (interface method)
func (r *Result) GetCompressedSize() uint64 {
	return r.CompressedSize
}
