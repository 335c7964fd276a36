// pkg/unbundle/options.go
package unbundle

import "io"

// Options configures bundle extraction
type Options struct {
	// Input .tar.xz bundle path
	InputPath string

	// Output directory path
	// Default: current directory
	OutputPath string

	// Verbose enables detailed logging
	Verbose bool

	// ProgressWriter receives progress updates (optional)
	ProgressWriter io.Writer

	// Quiet suppresses all output except errors
	Quiet bool

	// Overwrite existing archives without prompting
	Overwrite bool
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() *Options {
	return &Options{
		OutputPath: ".",
	}
}

// Validate checks if options are valid
func (o *Options) Validate() error {
	if o.InputPath == "" {
		return ErrInputRequired
	}
	if o.OutputPath == "" {
		o.OutputPath = "."
	}
	if o.Quiet {
		o.Verbose = false
	}
	return nil
}
