// pkg/recompress/bundle.go
package recompress

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

// BundleDictCap is the xz dictionary size used for bundles.
// Repacked archives are already deflated, so a larger window buys little.
const BundleDictCap = 1 << 26

// writeBundle stores the staged archives, flat and in order, into a .tar.xz file
func writeBundle(bundlePath string, staged []string) (err error) {
	if err := os.MkdirAll(filepath.Dir(bundlePath), 0755); err != nil {
		return fmt.Errorf("create bundle directory: %w", err)
	}

	file, err := os.Create(bundlePath)
	if err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close bundle: %w", cerr)
		}
		if err != nil {
			os.Remove(bundlePath)
		}
	}()

	xzConfig := xz.WriterConfig{DictCap: BundleDictCap}
	xzWriter, err := xzConfig.NewWriter(file)
	if err != nil {
		return fmt.Errorf("create xz writer: %w", err)
	}

	tarWriter := tar.NewWriter(xzWriter)
	for _, path := range staged {
		if err := addToBundle(tarWriter, path); err != nil {
			return err
		}
	}

	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}
	if err := xzWriter.Close(); err != nil {
		return fmt.Errorf("close xz: %w", err)
	}
	return nil
}

func addToBundle(tw *tar.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s: open: %w", filepath.Base(path), err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%s: stat: %w", filepath.Base(path), err)
	}

	header := &tar.Header{
		Name:     filepath.Base(path),
		Mode:     0644,
		Size:     stat.Size(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("%s: write header: %w", header.Name, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("%s: write data: %w", header.Name, err)
	}
	return nil
}
