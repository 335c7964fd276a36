// internal/format/detect.go
package format

import (
	"io"
	"os"
)

// MagicSize is the number of leading bytes needed by DetectFormat
const MagicSize = 6

// ArchiveFormat represents the detected payload format
type ArchiveFormat int

const (
	FormatUnknown ArchiveFormat = iota
	FormatZIP
	FormatXZ
)

// String returns the string representation of the format
func (f ArchiveFormat) String() string {
	switch f {
	case FormatZIP:
		return "ZIP"
	case FormatXZ:
		return "XZ"
	default:
		return "UNKNOWN"
	}
}

// DetectFormat detects the payload format from magic bytes
func DetectFormat(magic []byte) ArchiveFormat {
	switch {
	case IsZIP(magic):
		return FormatZIP
	case IsXZ(magic):
		return FormatXZ
	default:
		return FormatUnknown
	}
}

// DetectFile reads the leading bytes of path and detects its format
func DetectFile(path string) (ArchiveFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	magic := make([]byte, MagicSize)
	n, err := io.ReadFull(f, magic)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatUnknown, err
	}
	return DetectFormat(magic[:n]), nil
}

// IsZIP returns true if the magic bytes indicate a ZIP file
// (local file header, or end of central directory for an empty archive)
func IsZIP(magic []byte) bool {
	return len(magic) >= 4 && magic[0] == 'P' && magic[1] == 'K' &&
		((magic[2] == 3 && magic[3] == 4) || (magic[2] == 5 && magic[3] == 6))
}

// IsXZ returns true if the magic bytes indicate an XZ file
func IsXZ(magic []byte) bool {
	return len(magic) >= 6 &&
		magic[0] == 0xFD && magic[1] == '7' && magic[2] == 'z' &&
		magic[3] == 'X' && magic[4] == 'Z' && magic[5] == 0x00
}
