// pkg/unbundle/progress.go
package unbundle

import (
	"io"

	"github.com/creativeyann17/go-cbzpack/pkg/cbzpack"
	"github.com/vbauerster/mpb/v8"
)

// ProgressCallback is called for progress updates during extraction
type ProgressCallback func(event ProgressEvent)

// ProgressEvent contains progress information
type ProgressEvent struct {
	Type    EventType
	Archive string // Member name
	Current int64  // Bytes written so far (progress) or archives extracted (complete)
	Total   int64  // Member size, or archive count for start/complete
}

// EventType indicates the type of progress event
type EventType int

const (
	EventStart EventType = iota
	EventArchiveStart
	EventArchiveComplete
	EventError
	EventComplete
)

// ProgressBarCallback creates a progress callback with an archive bar
// Returns the callback function and the progress container (call Wait() after extraction)
func ProgressBarCallback(out io.Writer) (ProgressCallback, *mpb.Progress) {
	genericCb, progress := cbzpack.ProgressBarCallback(out, "Archives", "")

	callback := func(event ProgressEvent) {
		switch event.Type {
		case EventStart:
			genericCb(cbzpack.ProgressEvent{Type: cbzpack.EventStart, Total: event.Total})
		case EventArchiveComplete:
			genericCb(cbzpack.ProgressEvent{Type: cbzpack.EventItemComplete, Name: event.Archive})
		case EventError:
			genericCb(cbzpack.ProgressEvent{Type: cbzpack.EventError, Name: event.Archive})
		case EventComplete:
			genericCb(cbzpack.ProgressEvent{Type: cbzpack.EventComplete})
		}
	}

	return callback, progress
}

// FormatSummary formats an extraction result into a human-readable summary string
func FormatSummary(result *Result) string {
	return cbzpack.FormatSummary(result, cbzpack.OperationUnbundle, false)
}
