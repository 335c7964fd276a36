// cmd/cbzpack/memcheck.go

package main

import (
	"fmt"
	"os"

	"github.com/creativeyann17/go-cbzpack/pkg/cbzpack"
	"github.com/creativeyann17/go-cbzpack/pkg/recompress"
)

// memoryWarning returns a warning when the discovered archives would not fit
// in half of the system memory. Every archive is held in memory until it is
// persisted. Returns "" when the check passes or cannot be performed.
func memoryWarning(opts *recompress.Options) string {
	total, err := totalSystemMemory()
	if err != nil || total == 0 {
		return ""
	}

	archives, err := recompress.Discover(opts.InputPath, &recompress.DiscoverOptions{
		Exclude:        opts.StagingDir,
		UseIgnoreFiles: opts.UseIgnoreFiles,
	})
	if err != nil {
		return ""
	}

	var size uint64
	for _, path := range archives {
		if info, err := os.Stat(path); err == nil {
			size += uint64(info.Size())
		}
	}

	if size <= total/2 {
		return ""
	}
	return fmt.Sprintf("Warning: %d archives totalling %s will be held in memory (system memory: %s)",
		len(archives), cbzpack.FormatSize(size), cbzpack.FormatSize(total))
}
