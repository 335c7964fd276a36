// pkg/cbzpack/helpers.go
package cbzpack

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// OperationType indicates which command produced a result
type OperationType string

const (
	OperationRecompress OperationType = "recompress"
	OperationUnbundle   OperationType = "unbundle"
)

// ProgressEvent is a generic progress event shared by recompress and unbundle
type ProgressEvent struct {
	Type  EventType
	Name  string
	Total int64
}

// EventType indicates the type of progress event
type EventType int

const (
	EventStart        EventType = iota // Total = number of items
	EventWorkAdded                     // Total = units of work discovered for Name
	EventWorkDone                      // One unit of work finished
	EventItemComplete                  // Item Name finished
	EventError                         // Item Name failed
	EventComplete
)

// Result is a generic interface for recompress and unbundle results
type Result interface {
	GetItemsTotal() int
	GetItemsProcessed() int
	GetErrors() []error
	GetOriginalSize() uint64
	GetCompressedSize() uint64
	Success() bool
}

// ProgressBarCallback creates a callback rendering an item bar and a work bar.
// The callback is safe for concurrent use.
// Returns the callback function and the progress container (call Wait() after the operation)
func ProgressBarCallback(out io.Writer, itemLabel, workLabel string) (func(ProgressEvent), *mpb.Progress) {
	opts := []mpb.ContainerOption{
		mpb.WithWidth(60),
		mpb.WithRefreshRate(100 * time.Millisecond),
	}
	if out != nil {
		opts = append(opts, mpb.WithOutput(out))
	}
	progress := mpb.New(opts...)

	var mu sync.Mutex
	var itemBar, workBar *mpb.Bar
	var workTotal int64

	callback := func(event ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()

		switch event.Type {
		case EventStart:
			itemBar = progress.AddBar(event.Total,
				mpb.PrependDecorators(
					decor.Name(itemLabel, decor.WC{C: decor.DindentRight | decor.DextraSpace, W: 10}),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.Percentage(decor.WC{W: 5}),
				),
				mpb.BarPriority(1000), // High priority = bottom
			)
			if workLabel != "" {
				workBar = progress.AddBar(0,
					mpb.PrependDecorators(
						decor.Name(workLabel, decor.WC{C: decor.DindentRight | decor.DextraSpace, W: 10}),
						decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
					),
					mpb.AppendDecorators(
						decor.Elapsed(decor.ET_STYLE_GO, decor.WC{W: 8}),
					),
				)
			}

		case EventWorkAdded:
			if workBar != nil && event.Total > 0 {
				workTotal += event.Total
				workBar.SetTotal(workTotal, false)
			}

		case EventWorkDone:
			if workBar != nil {
				workBar.Increment()
			}

		case EventItemComplete, EventError:
			if itemBar != nil {
				itemBar.Increment()
			}

		case EventComplete:
			if workBar != nil {
				workBar.SetTotal(-1, true)
			}
			// Bars built with a positive total only complete on their own;
			// cancelled runs never reach it
			if itemBar != nil && !itemBar.Completed() {
				itemBar.Abort(false)
			}
		}
	}

	return callback, progress
}

// FormatSummary formats a result into a human-readable summary string
func FormatSummary(result Result, operation OperationType, isDryRun bool) string {
	var sb strings.Builder

	errors := result.GetErrors()
	if len(errors) > 0 {
		fmt.Fprintf(&sb, "Completed with %d errors:\n", len(errors))
		for _, e := range errors {
			fmt.Fprintf(&sb, "  - %v\n", e)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Summary:\n")
	if operation == OperationRecompress {
		fmt.Fprintf(&sb, "  Archives processed: %d / %d\n", result.GetItemsProcessed(), result.GetItemsTotal())
		fmt.Fprintf(&sb, "  Before:             %s\n", FormatSize(result.GetOriginalSize()))
		if isDryRun {
			fmt.Fprintf(&sb, "  After:              %s (not written)\n", FormatSize(result.GetCompressedSize()))
		} else {
			fmt.Fprintf(&sb, "  After:              %s\n", FormatSize(result.GetCompressedSize()))
		}
		if result.GetOriginalSize() > 0 {
			ratio := float64(result.GetCompressedSize()) / float64(result.GetOriginalSize()) * 100
			fmt.Fprintf(&sb, "  Ratio:              %.1f%%\n", ratio)
		}
	} else {
		fmt.Fprintf(&sb, "  Archives extracted: %d / %d\n", result.GetItemsProcessed(), result.GetItemsTotal())
		fmt.Fprintf(&sb, "  Bundle size:        %s\n", FormatSize(result.GetCompressedSize()))
		fmt.Fprintf(&sb, "  Extracted size:     %s\n", FormatSize(result.GetOriginalSize()))
	}

	if isDryRun {
		sb.WriteString("\nDry run complete - no data written.\n")
	}

	return sb.String()
}

// FormatSize formats bytes into human-readable string
func FormatSize(bytes uint64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
		TB = 1024 * GB
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.2f TiB", float64(bytes)/float64(TB))
	case bytes >= GB:
		return fmt.Sprintf("%.2f GiB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MiB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KiB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// TruncateLeft truncates a path from the left to fit maxLen, preserving the filename
func TruncateLeft(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	filename := filepath.Base(path)
	if len(filename) >= maxLen-3 {
		return "..." + filename[len(filename)-(maxLen-3):]
	}

	return "..." + path[len(path)-(maxLen-3):]
}
