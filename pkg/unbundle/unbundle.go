// pkg/unbundle/unbundle.go
package unbundle

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/creativeyann17/go-cbzpack/internal/container"
	"github.com/creativeyann17/go-cbzpack/internal/format"
	"github.com/creativeyann17/go-cbzpack/pkg/cbzpack"
)

// Unbundle extracts every archive of a .tar.xz bundle into opts.OutputPath
func Unbundle(opts *Options, progressCb ProgressCallback) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	detected, err := format.DetectFile(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	if detected != format.FormatXZ {
		return nil, fmt.Errorf("%s: %w (detected %s)", opts.InputPath, ErrNotBundle, detected)
	}

	result := &Result{}

	// Quick scan for the progress total
	total, err := countMembers(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("scan bundle: %w", err)
	}
	result.ArchivesTotal = total

	emit := func(event ProgressEvent) {
		if progressCb != nil {
			progressCb(event)
		}
	}
	emit(ProgressEvent{Type: EventStart, Total: int64(total)})

	err = extract(opts, emit, result)

	// Sent on failure too so progress displays can shut down
	emit(ProgressEvent{
		Type:    EventComplete,
		Current: int64(result.ArchivesProcessed),
		Total:   int64(total),
	})
	return result, err
}

// countMembers counts the regular files of a bundle
func countMembers(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	xzReader, err := xz.NewReader(file)
	if err != nil {
		return 0, err
	}

	tarReader := tar.NewReader(xzReader)
	count := 0
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
		if header.Typeflag == tar.TypeReg {
			count++
		}
	}
	return count, nil
}

func extract(opts *Options, emit func(ProgressEvent), result *Result) error {
	file, err := os.Open(opts.InputPath)
	if err != nil {
		return fmt.Errorf("open bundle: %w", err)
	}
	defer file.Close()

	if stat, err := file.Stat(); err == nil {
		result.BundleSize = uint64(stat.Size())
	}

	xzReader, err := xz.NewReader(file)
	if err != nil {
		return fmt.Errorf("create xz reader: %w", err)
	}

	tarReader := tar.NewReader(xzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		emit(ProgressEvent{Type: EventArchiveStart, Archive: header.Name, Total: header.Size})

		outPath, err := writeMember(opts, header, tarReader)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", header.Name, err))
			emit(ProgressEvent{Type: EventError, Archive: header.Name})
			// Unread member data is skipped by the next call to Next
			continue
		}

		result.ArchivesProcessed++
		result.ExtractedSize += uint64(header.Size)
		result.Extracted = append(result.Extracted, outPath)

		emit(ProgressEvent{
			Type:    EventArchiveComplete,
			Archive: header.Name,
			Current: header.Size,
			Total:   header.Size,
		})
	}
}

// writeMember copies one tar member under the output directory
func writeMember(opts *Options, header *tar.Header, r io.Reader) (string, error) {
	if !container.ValidPath(header.Name) {
		return "", ErrUnsafePath
	}

	outPath := filepath.Join(opts.OutputPath, filepath.FromSlash(header.Name))

	if !opts.Overwrite {
		if _, err := os.Stat(outPath); err == nil {
			return "", ErrFileExists
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create: %w", err)
	}

	cw := &cbzpack.CountingWriter{Writer: outFile}
	if _, err := io.Copy(cw, r); err != nil {
		outFile.Close()
		os.Remove(outPath)
		return "", fmt.Errorf("write: %w", err)
	}
	if err := outFile.Close(); err != nil {
		return "", fmt.Errorf("close: %w", err)
	}
	if cw.Count != header.Size {
		os.Remove(outPath)
		return "", fmt.Errorf("write: short member, %d of %d bytes", cw.Count, header.Size)
	}
	return outPath, nil
}
