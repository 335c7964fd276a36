// pkg/verify/result.go
package verify

import (
	"fmt"
	"io/fs"

	"github.com/creativeyann17/go-cbzpack/pkg/cbzpack"
)

// Format represents the verified file type
type Format string

const (
	FormatCBZ     Format = "CBZ"
	FormatBundle  Format = "TAR.XZ"
	FormatUnknown Format = "UNKNOWN"
)

// Result contains comprehensive verification results
type Result struct {
	// File metadata
	Format      Format // CBZ or TAR.XZ bundle
	ArchivePath string // Path to the verified file
	ArchiveSize uint64 // File size in bytes
	Magic       string // Leading bytes, hex encoded

	// Per-archive details (one for a .cbz, one per member for a bundle)
	Archives []ArchiveInfo

	// Entry statistics across all archives
	EntryCount    int    // Number of entries
	ImageCount    int    // Entries with an image extension
	TotalOrigSize uint64 // Sum of uncompressed entry sizes
	TotalCompSize uint64 // Sum of compressed entry sizes
	EmptyEntries  int    // Number of zero-byte entries

	// Data integrity (only populated when VerifyData=true)
	DataVerified    bool // Whether data verification was performed
	EntriesVerified int  // Entries whose data decompressed with a matching CRC
	ImagesDecoded   int  // Images that decoded successfully
	CorruptEntries  int  // Entries that failed verification

	// Structural integrity
	StructureValid bool // Every container could be opened
	DuplicatePaths int  // Entries sharing a path within one archive

	// Errors encountered during verification
	Errors []error
}

// ArchiveInfo describes one verified .cbz container
type ArchiveInfo struct {
	Name    string
	Size    uint64
	Entries []EntryInfo
	Valid   bool
}

// EntryInfo contains information about a single entry
type EntryInfo struct {
	Path           string      // Path inside the archive
	OriginalSize   uint64      // Uncompressed size
	CompressedSize uint64      // Compressed size
	Method         uint16      // Zip compression method
	Mode           fs.FileMode // Unix permissions
	Image          bool        // Path carries an image extension
	DataValid      bool        // Data integrity verified (when VerifyData=true)
	Error          error       // First problem found for this entry
}

// CompressionRatio returns the compression ratio as a percentage
func (r *Result) CompressionRatio() float64 {
	if r.TotalOrigSize == 0 {
		return 0
	}
	return float64(r.TotalCompSize) / float64(r.TotalOrigSize) * 100
}

// SpaceSaved returns bytes saved by compression
func (r *Result) SpaceSaved() uint64 {
	if r.TotalCompSize >= r.TotalOrigSize {
		return 0
	}
	return r.TotalOrigSize - r.TotalCompSize
}

// IsValid returns true if the file passed all validation checks
func (r *Result) IsValid() bool {
	return r.StructureValid && len(r.Errors) == 0 && r.CorruptEntries == 0 && r.DuplicatePaths == 0
}

// Success returns true if verification completed without critical errors
func (r *Result) Success() bool {
	return r.IsValid()
}

// Summary returns a human-readable summary of the verification result
func (r *Result) Summary() string {
	status := "VALID"
	if !r.IsValid() {
		status = "INVALID"
	}

	s := fmt.Sprintf("Archive: %s [%s]\n", r.ArchivePath, status)
	s += fmt.Sprintf("Format:  %s\n", r.Format)
	s += fmt.Sprintf("Size:    %s\n", cbzpack.FormatSize(r.ArchiveSize))
	if r.Format == FormatBundle {
		s += fmt.Sprintf("Archives: %d\n", len(r.Archives))
	}
	s += fmt.Sprintf("Entries: %d (%d images)\n", r.EntryCount, r.ImageCount)

	if r.TotalOrigSize > 0 {
		s += fmt.Sprintf("Original:   %s\n", cbzpack.FormatSize(r.TotalOrigSize))
		s += fmt.Sprintf("Compressed: %s (%.1f%% ratio)\n",
			cbzpack.FormatSize(r.TotalCompSize), r.CompressionRatio())
	}

	if r.DataVerified {
		s += "\nData Integrity:\n"
		s += fmt.Sprintf("  Entries Verified: %d/%d\n", r.EntriesVerified, r.EntryCount)
		s += fmt.Sprintf("  Images Decoded:   %d/%d\n", r.ImagesDecoded, r.ImageCount)
		if r.CorruptEntries > 0 {
			s += fmt.Sprintf("  Corrupt Entries:  %d\n", r.CorruptEntries)
		}
	}

	if len(r.Errors) > 0 {
		s += fmt.Sprintf("\nErrors (%d):\n", len(r.Errors))
		for i, err := range r.Errors {
			if i >= 10 {
				s += fmt.Sprintf("  ... and %d more errors\n", len(r.Errors)-10)
				break
			}
			s += fmt.Sprintf("  - %v\n", err)
		}
	}

	return s
}
