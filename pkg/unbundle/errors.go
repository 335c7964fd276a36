// pkg/unbundle/errors.go
package unbundle

import "errors"

var (
	// ErrInputRequired is returned when input path is not specified
	ErrInputRequired = errors.New("input path is required")

	// ErrNotBundle is returned when the input does not start with an xz signature
	ErrNotBundle = errors.New("input is not a .tar.xz bundle")

	// ErrFileExists is returned when an archive already exists and Overwrite is false
	ErrFileExists = errors.New("file exists (use --overwrite to replace)")

	// ErrUnsafePath is returned for members that would be written outside the output directory
	ErrUnsafePath = errors.New("unsafe member path")
)
