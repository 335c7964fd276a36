// pkg/recompress/state.go
package recompress

// ArchiveState is the position of one archive in the pipeline
type ArchiveState int

const (
	StateDiscovered ArchiveState = iota
	StateExtracted
	StateFiltered
	StateTranscoded
	StateRepacked
	StatePersisted

	// Terminal failure states
	StateExtractionFailed
	StateWriteFailed
	StateDuplicate
	StateCancelled
)

// String returns the string representation of the state
func (s ArchiveState) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateExtracted:
		return "extracted"
	case StateFiltered:
		return "filtered"
	case StateTranscoded:
		return "transcoded"
	case StateRepacked:
		return "repacked"
	case StatePersisted:
		return "persisted"
	case StateExtractionFailed:
		return "extraction-failed"
	case StateWriteFailed:
		return "write-failed"
	case StateDuplicate:
		return "duplicate"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further stage runs for the archive
func (s ArchiveState) Terminal() bool {
	return s >= StatePersisted
}
