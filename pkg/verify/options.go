// pkg/verify/options.go
package verify

// Options configures the verify operation
type Options struct {
	// InputPath is the .cbz archive or .tar.xz bundle to verify (required)
	InputPath string

	// VerifyData decompresses every entry (checking its CRC) and decodes every image
	// When false, only structural validation is performed (faster)
	// Default: false
	VerifyData bool

	// Verbose enables detailed logging during verification
	Verbose bool

	// Quiet suppresses all output except errors
	Quiet bool
}

// Validate checks if options are valid
func (o *Options) Validate() error {
	if o.InputPath == "" {
		return ErrInputRequired
	}
	if o.Quiet {
		o.Verbose = false
	}
	return nil
}
