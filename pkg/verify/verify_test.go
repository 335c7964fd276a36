// pkg/verify/verify_test.go
package verify_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/creativeyann17/go-cbzpack/internal/container"
	"github.com/creativeyann17/go-cbzpack/pkg/recompress"
	"github.com/creativeyann17/go-cbzpack/pkg/verify"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// packCBZ writes a repacked archive the way the pipeline does
func packCBZ(t *testing.T, dir, name string, entries []container.Entry) string {
	t.Helper()
	for i := range entries {
		entries[i].Archive = name
	}
	packed, err := container.Pack(entries, container.DefaultLevel)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, packed.Data, 0644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return path
}

type rawEntry struct {
	header zip.FileHeader
	data   []byte
}

// writeRaw writes a zip with arbitrary headers
func writeRaw(t *testing.T, path string, entries []rawEntry) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		h := e.header
		w, err := zw.CreateHeader(&h)
		if err != nil {
			t.Fatalf("create %s: %v", h.Name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestVerifyCBZ(t *testing.T) {
	path := packCBZ(t, t.TempDir(), "vol1.cbz", []container.Entry{
		{Path: "page1.png", Data: pngBytes(t)},
		{Path: "sub/info.txt", Data: []byte("credits")},
		{Path: "empty.txt", Data: nil},
	})

	t.Run("StructuralValidation", func(t *testing.T) {
		result, err := verify.Verify(&verify.Options{InputPath: path}, nil)
		if err != nil {
			t.Fatalf("Verification failed: %v", err)
		}

		if result.Format != verify.FormatCBZ {
			t.Errorf("Expected format CBZ, got %s", result.Format)
		}
		if !result.StructureValid {
			t.Error("Structure should be valid")
		}
		if result.EntryCount != 3 || result.ImageCount != 1 || result.EmptyEntries != 1 {
			t.Errorf("Unexpected counts: entries=%d images=%d empty=%d", result.EntryCount, result.ImageCount, result.EmptyEntries)
		}
		if result.DataVerified {
			t.Error("Data should not be verified in structural mode")
		}
		if !result.IsValid() {
			t.Errorf("Archive should be valid, errors: %v", result.Errors)
		}
	})

	t.Run("DataValidation", func(t *testing.T) {
		result, err := verify.Verify(&verify.Options{InputPath: path, VerifyData: true}, nil)
		if err != nil {
			t.Fatalf("Verification failed: %v", err)
		}
		if !result.DataVerified {
			t.Error("Data should be verified")
		}
		if result.EntriesVerified != 3 || result.ImagesDecoded != 1 {
			t.Errorf("Expected 3 entries and 1 image verified, got %d and %d", result.EntriesVerified, result.ImagesDecoded)
		}
		if !result.IsValid() {
			t.Errorf("Archive should be valid, errors: %v", result.Errors)
		}
	})
}

func TestVerifyStructuralViolations(t *testing.T) {
	deflated := func(name string) zip.FileHeader {
		h := zip.FileHeader{Name: name, Method: zip.Deflate}
		h.SetMode(container.UnixMode)
		return h
	}
	stored := zip.FileHeader{Name: "stored.txt", Method: zip.Store}
	stored.SetMode(container.UnixMode)
	private := deflated("private.txt")
	private.SetMode(0600)

	tests := []struct {
		name    string
		entries []rawEntry
		wantErr error
	}{
		{"Directory", []rawEntry{{deflated("chapter/"), nil}}, verify.ErrDirectoryEntry},
		{"Stored", []rawEntry{{stored, []byte("x")}}, verify.ErrNotDeflated},
		{"Mode", []rawEntry{{private, []byte("x")}}, verify.ErrUnexpectedMode},
		{"Escaping", []rawEntry{{deflated("../up.txt"), []byte("x")}}, verify.ErrInvalidPath},
		{"Duplicate", []rawEntry{{deflated("a.txt"), []byte("1")}, {deflated("a.txt"), []byte("2")}}, verify.ErrDuplicatePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.cbz")
			writeRaw(t, path, tt.entries)

			result, err := verify.Verify(&verify.Options{InputPath: path}, nil)
			if err != nil {
				t.Fatalf("Verify returned error: %v", err)
			}
			if result.IsValid() {
				t.Fatal("Archive should be invalid")
			}

			found := false
			for _, e := range result.Errors {
				if errors.Is(e, tt.wantErr) {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected %v among %v", tt.wantErr, result.Errors)
			}
		})
	}
}

func TestVerifyUndecodableImage(t *testing.T) {
	path := packCBZ(t, t.TempDir(), "vol1.cbz", []container.Entry{
		{Path: "page.jpg", Data: []byte("not an image")},
	})

	structural, err := verify.Verify(&verify.Options{InputPath: path}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !structural.IsValid() {
		t.Errorf("Structure alone should pass, errors: %v", structural.Errors)
	}

	result, err := verify.Verify(&verify.Options{InputPath: path, VerifyData: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.CorruptEntries != 1 || result.IsValid() {
		t.Errorf("Expected 1 corrupt entry, got %d", result.CorruptEntries)
	}
	if len(result.Errors) != 1 || !errors.Is(result.Errors[0], verify.ErrCorruptData) {
		t.Errorf("Expected ErrCorruptData, got %v", result.Errors)
	}
	if result.Archives[0].Entries[0].DataValid {
		t.Error("Entry should not be marked valid")
	}
}

func TestVerifyCorruptedData(t *testing.T) {
	payload := []byte(strings.Repeat("0123456789abcdef", 512))
	path := packCBZ(t, t.TempDir(), "vol1.cbz", []container.Entry{{Path: "data.txt", Data: payload}})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// Local header is 30 bytes plus the name; flip a byte of the deflate stream
	offset := 30 + len("data.txt") + 4
	data[offset] ^= 0xFF
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	result, err := verify.Verify(&verify.Options{InputPath: path, VerifyData: true}, nil)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if result.CorruptEntries != 1 {
		t.Errorf("Expected corrupt entry, got %d (errors: %v)", result.CorruptEntries, result.Errors)
	}
	if result.IsValid() {
		t.Error("Corrupted archive should be invalid")
	}
}

func TestVerifyInvalidArchive(t *testing.T) {
	dir := t.TempDir()

	t.Run("UnknownMagic", func(t *testing.T) {
		path := filepath.Join(dir, "text.cbz")
		if err := os.WriteFile(path, []byte("just some text"), 0644); err != nil {
			t.Fatal(err)
		}
		result, err := verify.Verify(&verify.Options{InputPath: path}, nil)
		if !errors.Is(err, verify.ErrUnsupportedFormat) {
			t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
		}
		if result == nil || result.Format != verify.FormatUnknown {
			t.Errorf("Expected unknown format result, got %+v", result)
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		path := filepath.Join(dir, "short.cbz")
		if err := os.WriteFile(path, []byte("PK"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := verify.Verify(&verify.Options{InputPath: path}, nil); !errors.Is(err, verify.ErrTruncatedArchive) {
			t.Errorf("Expected ErrTruncatedArchive, got %v", err)
		}
	})

	t.Run("BrokenDirectory", func(t *testing.T) {
		path := filepath.Join(dir, "broken.cbz")
		if err := os.WriteFile(path, []byte("PK\x03\x04 and then nothing useful"), 0644); err != nil {
			t.Fatal(err)
		}
		result, err := verify.Verify(&verify.Options{InputPath: path}, nil)
		if !errors.Is(err, verify.ErrInvalidHeader) {
			t.Errorf("Expected ErrInvalidHeader, got %v", err)
		}
		if result.IsValid() {
			t.Error("Broken archive should be invalid")
		}
	})

	t.Run("NonExistent", func(t *testing.T) {
		if _, err := verify.Verify(&verify.Options{InputPath: filepath.Join(dir, "missing.cbz")}, nil); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected ErrNotExist, got %v", err)
		}
	})
}

func TestVerifyBundle(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.cbz", "b.cbz"} {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, _ := zw.Create("page.png")
		w.Write(pngBytes(t))
		zw.Close()
		if err := os.WriteFile(filepath.Join(root, name), buf.Bytes(), 0644); err != nil {
			t.Fatal(err)
		}
	}

	bundle := filepath.Join(t.TempDir(), "library.tar.xz")
	opts := &recompress.Options{InputPath: root, BundlePath: bundle, Quiet: true}
	if _, err := recompress.Recompress(context.Background(), opts, nil); err != nil {
		t.Fatalf("Recompress failed: %v", err)
	}

	var events []verify.EventType
	result, err := verify.Verify(&verify.Options{InputPath: bundle, VerifyData: true}, func(e verify.ProgressEvent) {
		events = append(events, e.Type)
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if result.Format != verify.FormatBundle {
		t.Errorf("Expected bundle format, got %s", result.Format)
	}
	if len(result.Archives) != 2 {
		t.Fatalf("Expected 2 archives, got %d", len(result.Archives))
	}
	// b.cbz/page.png and a.cbz/page.png are distinct ledger keys
	if result.EntryCount != 2 {
		t.Errorf("Expected 2 entries, got %d", result.EntryCount)
	}
	if result.ImagesDecoded != result.ImageCount {
		t.Errorf("Expected every image decoded, got %d/%d", result.ImagesDecoded, result.ImageCount)
	}
	if !result.IsValid() {
		t.Errorf("Bundle should be valid, errors: %v", result.Errors)
	}

	if len(events) == 0 || events[0] != verify.EventStart || events[len(events)-1] != verify.EventComplete {
		t.Errorf("Unexpected event sequence: %v", events)
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := (&verify.Options{}).Validate(); !errors.Is(err, verify.ErrInputRequired) {
		t.Errorf("Expected ErrInputRequired, got %v", err)
	}

	opts := &verify.Options{InputPath: "a.cbz", Quiet: true, Verbose: true}
	if err := opts.Validate(); err != nil {
		t.Fatal(err)
	}
	if opts.Verbose {
		t.Error("Quiet should disable Verbose")
	}
}

func TestResultSummary(t *testing.T) {
	result := &verify.Result{
		Format:         verify.FormatCBZ,
		ArchivePath:    "vol1.cbz",
		ArchiveSize:    2048,
		EntryCount:     3,
		ImageCount:     2,
		TotalOrigSize:  4096,
		TotalCompSize:  1024,
		StructureValid: true,
		DataVerified:   true,
	}

	summary := result.Summary()
	for _, want := range []string{"vol1.cbz [VALID]", "Format:  CBZ", "Entries: 3 (2 images)", "25.0% ratio", "Data Integrity"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary missing %q:\n%s", want, summary)
		}
	}

	result.Errors = []error{errors.New("boom")}
	if !strings.Contains(result.Summary(), "[INVALID]") {
		t.Error("Summary should report INVALID when errors exist")
	}
	if result.SpaceSaved() != 3072 {
		t.Errorf("Expected 3072 saved, got %d", result.SpaceSaved())
	}
}
