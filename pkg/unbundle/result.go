// pkg/unbundle/result.go
package unbundle

// Result contains statistics about the extraction
type Result struct {
	// Total number of archives in the bundle
	ArchivesTotal int

	// Number of archives written
	ArchivesProcessed int

	// Bundle size in bytes
	BundleSize uint64

	// Total extracted size in bytes
	ExtractedSize uint64

	// Paths of the written archives, in bundle order
	Extracted []string

	// List of errors encountered (non-fatal)
	Errors []error
}

// Success returns true if all archives were extracted without errors
func (r *Result) Success() bool {
	return len(r.Errors) == 0 && r.ArchivesProcessed == r.ArchivesTotal
}

// GetItemsTotal returns total archives (interface method)
func (r *Result) GetItemsTotal() int {
	return r.ArchivesTotal
}

// GetItemsProcessed returns extracted archives (interface method)
func (r *Result) GetItemsProcessed() int {
	return r.ArchivesProcessed
}

// GetErrors returns the error list (interface method)
func (r *Result) GetErrors() []error {
	return r.Errors
}

// GetOriginalSize returns extracted size (interface method)
func (r *Result) GetOriginalSize() uint64 {
	return r.ExtractedSize
}

// GetCompressedSize returns bundle size (interface method)
func (r *Result) GetCompressedSize() uint64 {
	return r.BundleSize
}
