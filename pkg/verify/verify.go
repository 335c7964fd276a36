// pkg/verify/verify.go
package verify

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
	"github.com/ulikunitz/xz"

	"github.com/creativeyann17/go-cbzpack/internal/container"
	"github.com/creativeyann17/go-cbzpack/internal/format"
	"github.com/creativeyann17/go-cbzpack/internal/transcode"
)

// ProgressCallback is called for progress updates during verification
type ProgressCallback func(event ProgressEvent)

// ProgressEvent contains progress information
type ProgressEvent struct {
	Type     EventType
	FilePath string // Archive name, or archive/entry for entry events
	Current  int
	Total    int
	Message  string
}

// EventType indicates the type of progress event
type EventType int

const (
	EventStart EventType = iota
	EventArchiveVerify
	EventEntryVerify
	EventComplete
	EventError
)

// Verify checks a repacked .cbz archive, or every archive of a .tar.xz bundle
func Verify(opts *Options, progressCb ProgressCallback) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		ArchivePath: opts.InputPath,
	}

	file, err := os.Open(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	result.ArchiveSize = uint64(stat.Size())

	magic := make([]byte, format.MagicSize)
	if _, err := io.ReadFull(file, magic); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("read magic: %w", err))
		return result, ErrTruncatedArchive
	}
	result.Magic = hex.EncodeToString(magic)

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to start: %w", err)
	}

	v := &verifier{opts: opts, progressCb: progressCb, result: result}

	switch format.DetectFormat(magic) {
	case format.FormatZIP:
		result.Format = FormatCBZ
		v.emit(ProgressEvent{Type: EventStart, Total: 1})
		info := v.verifyArchive(stat.Name(), file, stat.Size())
		result.Archives = append(result.Archives, info)
		if !info.Valid {
			return result, ErrInvalidHeader
		}

	case format.FormatXZ:
		result.Format = FormatBundle
		v.emit(ProgressEvent{Type: EventStart})
		if err := v.verifyBundle(file); err != nil {
			return result, err
		}

	default:
		result.Format = FormatUnknown
		result.Errors = append(result.Errors, ErrInvalidMagic)
		return result, ErrUnsupportedFormat
	}

	result.StructureValid = true
	for _, a := range result.Archives {
		if !a.Valid {
			result.StructureValid = false
		}
	}
	result.DataVerified = opts.VerifyData

	v.emit(ProgressEvent{
		Type:    EventComplete,
		Current: len(result.Archives),
		Total:   len(result.Archives),
	})
	return result, nil
}

type verifier struct {
	opts       *Options
	progressCb ProgressCallback
	result     *Result
}

// verifyBundle checks every member of a tar.xz bundle. Members are buffered
// in memory since zip needs random access.
func (v *verifier) verifyBundle(file io.Reader) error {
	xzReader, err := xz.NewReader(file)
	if err != nil {
		v.result.Errors = append(v.result.Errors, fmt.Errorf("read xz header: %w", err))
		return ErrInvalidHeader
	}

	tarReader := tar.NewReader(xzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			v.result.Errors = append(v.result.Errors, fmt.Errorf("read tar header: %w", err))
			return ErrTruncatedArchive
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		if !container.HasExtension(header.Name) {
			v.fail(header.Name, fmt.Errorf("%s: %w", header.Name, ErrUnsupportedFormat))
			continue
		}

		data, err := io.ReadAll(tarReader)
		if err != nil {
			v.result.Errors = append(v.result.Errors, fmt.Errorf("%s: read: %w", header.Name, err))
			return ErrTruncatedArchive
		}

		info := v.verifyArchive(header.Name, bytes.NewReader(data), int64(len(data)))
		v.result.Archives = append(v.result.Archives, info)
	}
}

// verifyArchive checks one zip container and folds its statistics into the result
func (v *verifier) verifyArchive(name string, r io.ReaderAt, size int64) ArchiveInfo {
	info := ArchiveInfo{Name: name, Size: uint64(size), Valid: true}

	v.emit(ProgressEvent{Type: EventArchiveVerify, FilePath: name})

	// Insecure names are reported per entry below
	zr, err := zip.NewReader(r, size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		info.Valid = false
		v.fail(name, fmt.Errorf("%s: %w: %v", name, ErrInvalidHeader, err))
		return info
	}
	zr.RegisterDecompressor(zip.Deflate, flate.NewReader)

	seen := make(map[string]bool, len(zr.File))
	for i, f := range zr.File {
		entry := v.verifyEntry(name, f, seen)
		info.Entries = append(info.Entries, entry)

		v.emit(ProgressEvent{
			Type:     EventEntryVerify,
			FilePath: name + "/" + f.Name,
			Current:  i + 1,
			Total:    len(zr.File),
		})
	}

	return info
}

func (v *verifier) verifyEntry(archive string, f *zip.File, seen map[string]bool) EntryInfo {
	res := v.result
	entry := EntryInfo{
		Path:           f.Name,
		OriginalSize:   f.UncompressedSize64,
		CompressedSize: f.CompressedSize64,
		Method:         f.Method,
		Mode:           f.Mode().Perm(),
		Image:          transcode.IsImagePath(f.Name),
	}

	res.EntryCount++
	res.TotalOrigSize += entry.OriginalSize
	res.TotalCompSize += entry.CompressedSize
	if entry.OriginalSize == 0 {
		res.EmptyEntries++
	}
	if entry.Image {
		res.ImageCount++
	}

	structural := func(err error) {
		if entry.Error == nil {
			entry.Error = err
		}
		v.fail(archive+"/"+f.Name, fmt.Errorf("%s: %s: %w", archive, f.Name, err))
	}

	switch {
	case f.FileInfo().IsDir():
		structural(ErrDirectoryEntry)
		return entry
	case !container.ValidPath(f.Name):
		structural(ErrInvalidPath)
		return entry
	}

	if seen[f.Name] {
		res.DuplicatePaths++
		structural(ErrDuplicatePath)
	}
	seen[f.Name] = true

	if f.Method != zip.Deflate {
		structural(ErrNotDeflated)
	}
	if entry.Mode != container.UnixMode {
		structural(fmt.Errorf("%w: %v", ErrUnexpectedMode, entry.Mode))
	}

	if !v.opts.VerifyData {
		return entry
	}

	if err := v.verifyData(f, entry.Image); err != nil {
		res.CorruptEntries++
		if entry.Error == nil {
			entry.Error = err
		}
		v.fail(archive+"/"+f.Name, fmt.Errorf("%s: %s: %w: %v", archive, f.Name, ErrCorruptData, err))
		return entry
	}

	entry.DataValid = true
	res.EntriesVerified++
	if entry.Image {
		res.ImagesDecoded++
	}
	return entry
}

// verifyData decompresses the entry, which checks its CRC32, and decodes images
func (v *verifier) verifyData(f *zip.File, isImage bool) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	if uint64(len(data)) != f.UncompressedSize64 {
		return fmt.Errorf("size mismatch: expected %d, got %d", f.UncompressedSize64, len(data))
	}

	if isImage {
		if _, err := transcode.Check(data); err != nil {
			return err
		}
	}
	return nil
}

func (v *verifier) fail(path string, err error) {
	v.result.Errors = append(v.result.Errors, err)
	v.emit(ProgressEvent{Type: EventError, FilePath: path, Message: err.Error()})
}

func (v *verifier) emit(event ProgressEvent) {
	if v.progressCb != nil {
		v.progressCb(event)
	}
}
