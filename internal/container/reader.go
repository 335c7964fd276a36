// internal/container/reader.go
package container

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/flate"
)

const maxPrealloc = 64 << 20

// ReadArchive loads the container at path into memory and returns its leaf entries.
// Directory entries are skipped. Entries keep the central directory order.
func ReadArchive(path string) (*Archive, error) {
	name := filepath.Base(path)
	if !utf8.ValidString(name) {
		return nil, fmt.Errorf("%w: archive name %q", ErrInvalidPath, name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	archive, err := readFromBytes(name, data)
	if err != nil {
		return nil, err
	}
	archive.Path = path
	return archive, nil
}

// readFromBytes parses an in-memory container
func readFromBytes(name string, data []byte) (*Archive, error) {
	// Insecure names are skipped per entry below
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrFormat, err)
	}
	zr.RegisterDecompressor(zip.Deflate, flate.NewReader)

	archive := &Archive{
		Name:    name,
		Size:    uint64(len(data)),
		Entries: make([]Entry, 0, len(zr.File)),
	}

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || strings.HasSuffix(zf.Name, "/") {
			continue
		}
		if !ValidPath(zf.Name) {
			archive.Skipped = append(archive.Skipped, fmt.Errorf("%s: %w: %q", name, ErrInvalidPath, zf.Name))
			continue
		}

		content, err := readEntry(zf)
		if err != nil {
			return nil, fmt.Errorf("%s: read %s: %w: %v", name, zf.Name, ErrFormat, err)
		}

		archive.Entries = append(archive.Entries, Entry{
			Archive: name,
			Path:    zf.Name,
			Data:    content,
		})
	}

	return archive, nil
}

func readEntry(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// Header sizes are untrusted, cap the preallocation
	capHint := zf.UncompressedSize64
	if capHint > maxPrealloc {
		capHint = maxPrealloc
	}
	buf := bytes.NewBuffer(make([]byte, 0, capHint))
	if _, err := io.Copy(buf, rc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
