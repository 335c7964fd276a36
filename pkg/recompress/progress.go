// pkg/recompress/progress.go
package recompress

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/creativeyann17/go-cbzpack/pkg/cbzpack"
	"github.com/vbauerster/mpb/v8"
)

// ProgressCallback is called for progress events.
// It may be called concurrently from several goroutines.
type ProgressCallback func(event ProgressEvent)

// ProgressEvent contains progress information
type ProgressEvent struct {
	Type        EventType
	Archive     string        // Archive identifier
	Entry       string        // Entry path (image events)
	Current     int64         // Counter value after this event
	Total       int64         // Archives (start) or images of the archive (extracted)
	BeforeBytes uint64        // Source size (persisted, complete)
	AfterBytes  uint64        // Output size (persisted, complete)
	Elapsed     time.Duration // Run duration (complete)
	Err         error         // Failure cause (error)
}

// EventType indicates the type of progress event
type EventType int

const (
	EventStart EventType = iota
	EventArchiveDiscovered
	EventArchiveExtracted
	EventImageTranscoded
	EventImageFallback
	EventArchivePersisted
	EventError
	EventComplete
)

// Counters holds the per-run progress counters. Create one per run and
// share it with whoever displays progress; values only grow.
type Counters struct {
	Discovered atomic.Int64
	Extracted  atomic.Int64
	Completed  atomic.Int64
	Transcoded atomic.Int64
}

// NewCounters returns zeroed counters
func NewCounters() *Counters {
	return &Counters{}
}

// CounterSnapshot is a point-in-time copy of Counters
type CounterSnapshot struct {
	Discovered int64
	Extracted  int64
	Completed  int64
	Transcoded int64
}

// Snapshot reads every counter
func (c *Counters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		Discovered: c.Discovered.Load(),
		Extracted:  c.Extracted.Load(),
		Completed:  c.Completed.Load(),
		Transcoded: c.Transcoded.Load(),
	}
}

// ProgressBarCallback creates a progress callback that displays an archive bar and an image bar
// Returns the callback function and the progress container (call Wait() after the run)
func ProgressBarCallback(out io.Writer) (ProgressCallback, *mpb.Progress) {
	genericCb, progress := cbzpack.ProgressBarCallback(out, "Archives", "Images")

	// Adapt recompress.ProgressEvent to cbzpack.ProgressEvent
	callback := func(event ProgressEvent) {
		switch event.Type {
		case EventStart:
			genericCb(cbzpack.ProgressEvent{Type: cbzpack.EventStart, Total: event.Total})
		case EventArchiveExtracted:
			genericCb(cbzpack.ProgressEvent{Type: cbzpack.EventWorkAdded, Name: event.Archive, Total: event.Total})
		case EventImageTranscoded, EventImageFallback:
			genericCb(cbzpack.ProgressEvent{Type: cbzpack.EventWorkDone, Name: event.Archive})
		case EventArchivePersisted:
			genericCb(cbzpack.ProgressEvent{Type: cbzpack.EventItemComplete, Name: event.Archive})
		case EventError:
			// Entry-level errors do not end their archive
			if event.Entry == "" {
				genericCb(cbzpack.ProgressEvent{Type: cbzpack.EventError, Name: event.Archive})
			}
		case EventComplete:
			genericCb(cbzpack.ProgressEvent{Type: cbzpack.EventComplete})
		}
	}

	return callback, progress
}

// FormatSummary formats a recompression result into a human-readable summary string
func FormatSummary(result *Result, opts *Options) string {
	var sb strings.Builder

	isDryRun := opts != nil && opts.DryRun
	sb.WriteString(cbzpack.FormatSummary(result, cbzpack.OperationRecompress, isDryRun))

	sb.WriteString("\nImages:\n")
	fmt.Fprintf(&sb, "  Transcoded:         %d\n", result.ImagesTranscoded)
	if result.ImagesCached > 0 {
		fmt.Fprintf(&sb, "  From cache:         %d\n", result.ImagesCached)
	}
	if result.ImagesKept > 0 {
		fmt.Fprintf(&sb, "  Kept (larger):      %d\n", result.ImagesKept)
	}
	if result.ImagesFallback > 0 {
		fmt.Fprintf(&sb, "  Undecodable:        %d\n", result.ImagesFallback)
	}
	fmt.Fprintf(&sb, "  Other entries:      %d\n", result.EntriesCopied)
	if result.DuplicateEntries > 0 {
		fmt.Fprintf(&sb, "  Duplicates skipped: %d\n", result.DuplicateEntries)
	}
	fmt.Fprintf(&sb, "\nElapsed: %s\n", result.Elapsed.Round(time.Millisecond))
	if result.BundlePath != "" {
		fmt.Fprintf(&sb, "Bundle:  %s\n", result.BundlePath)
	}
	if result.Cancelled {
		sb.WriteString("Run was cancelled before every archive was processed.\n")
	}

	return sb.String()
}
