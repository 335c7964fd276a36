// internal/container/writer.go
package container

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// DefaultLevel is the deflate level used for repacked containers
const DefaultLevel = flate.BestCompression

// Pack serializes entries into a new zip container held in memory.
// Every entry is deflated at level and carries UnixMode. The container name is
// taken from the first entry; callers must only pass entries of one archive.
// Any entry failure aborts the whole container.
func Pack(entries []Entry, level int) (*Packed, error) {
	if level < flate.BestSpeed || level > flate.BestCompression {
		return nil, ErrInvalidLevel
	}

	var name string
	if len(entries) > 0 {
		name = entries[0].Archive
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	for _, entry := range entries {
		if !ValidPath(entry.Path) {
			zw.Close()
			return nil, fmt.Errorf("%s: %w: %q", name, ErrInvalidPath, entry.Path)
		}

		// Modified stays zero so identical input yields identical bytes
		header := &zip.FileHeader{
			Name:   entry.Path,
			Method: zip.Deflate,
		}
		header.SetMode(UnixMode)

		w, err := zw.CreateHeader(header)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("%s: create header %s: %w", name, entry.Path, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			zw.Close()
			return nil, fmt.Errorf("%s: write %s: %w", name, entry.Path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%s: close container: %w", name, err)
	}

	return &Packed{Name: name, Data: buf.Bytes()}, nil
}
