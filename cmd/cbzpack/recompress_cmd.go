// cmd/cbzpack/recompress_cmd.go

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"

	"github.com/creativeyann17/go-cbzpack/internal/container"
	"github.com/creativeyann17/go-cbzpack/pkg/recompress"
)

func init() {
	rootCmd.AddCommand(recompressCmd())
}

func recompressCmd() *cobra.Command {
	var inputPath, stagingDir, bundlePath string
	var maxThreads, ioThreads, level, cacheMiB int
	var keepLarger, failFast, useIgnore bool
	var dryRun, verbose, quiet bool

	cmd := &cobra.Command{
		Use:   "recompress",
		Short: "Re-encode and repack every .cbz archive under a directory",
		Long: `Walk the input directory (following symlinks) for .cbz archives, re-encode
every page as JPEG, drop entries already processed in this run, and write the
repacked archives with maximum deflate compression into the staging directory.

Source archives are never modified. Failed archives are reported and skipped
unless --fail-fast is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &recompress.Options{
				InputPath:      inputPath,
				StagingDir:     stagingDir,
				MaxThreads:     maxThreads,
				IOThreads:      ioThreads,
				Level:          level,
				CacheSize:      int64(cacheMiB) << 20,
				KeepLarger:     keepLarger,
				FailFast:       failFast,
				UseIgnoreFiles: useIgnore,
				BundlePath:     bundlePath,
				DryRun:         dryRun,
				Verbose:        verbose,
				Quiet:          quiet,
			}

			// Validate and set defaults
			if err := opts.Validate(); err != nil {
				return err
			}

			// Logging helper
			log := func(format string, args ...interface{}) {
				if !opts.Quiet {
					fmt.Printf(format+"\n", args...)
				}
			}

			log("Starting recompression...")
			log("  Input:       %s", opts.InputPath)
			log("  Staging:     %s", opts.StagingDir)
			log("  Threads:     %d transcode, %d I/O", opts.MaxThreads, opts.IOThreads)
			log("  Level:       %d", opts.Level)
			if opts.CacheSize > 0 {
				log("  Page cache:  %d MiB", opts.CacheSize>>20)
			}
			if opts.BundlePath != "" {
				log("  Bundle:      %s", opts.BundlePath)
			}
			if opts.UseIgnoreFiles {
				log("  Ignore:      %s files enabled", recompress.IgnoreFileName)
			}
			if opts.DryRun {
				log("  Mode:        DRY-RUN (no data written)")
			}
			if opts.Verbose {
				log("  Mode:        VERBOSE (detailed output)")
			}
			log("")

			if warning := memoryWarning(opts); warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var progressCb recompress.ProgressCallback
			var progress *mpb.Progress

			switch {
			case opts.Verbose:
				progressCb = verboseCallback()
			case !opts.Quiet:
				progressCb, progress = recompress.ProgressBarCallback(opts.ProgressWriter)
			}

			result, err := recompress.Recompress(ctx, opts, progressCb)

			// Wait for progress bars to finish rendering
			if progress != nil {
				progress.Wait()
			}

			if result == nil {
				return err
			}

			fmt.Println()
			fmt.Print(recompress.FormatSummary(result, opts))

			if opts.Verbose && len(result.Warnings) > 0 {
				fmt.Fprintf(os.Stderr, "\nWarnings (%d):\n", len(result.Warnings))
				for _, w := range result.Warnings {
					fmt.Fprintf(os.Stderr, "  - %v\n", w)
				}
			}

			if errors.Is(err, context.Canceled) {
				return fmt.Errorf("interrupted")
			}
			// Archive failures are part of the summary, only fatal errors fail the command
			return err
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Root directory to scan for .cbz archives (required)")
	cmd.Flags().StringVarP(&stagingDir, "staging", "s", "", "Output directory for repacked archives (default <input>/"+recompress.StagingDirName+")")
	cmd.Flags().IntVarP(&maxThreads, "threads", "t", runtime.NumCPU(), "Image transcoding workers")
	cmd.Flags().IntVar(&ioThreads, "io-threads", runtime.NumCPU(), "Archives read and written concurrently")
	cmd.Flags().IntVarP(&level, "level", "l", container.DefaultLevel, "Deflate level for repacked archives (1=fastest, 9=best)")
	cmd.Flags().IntVar(&cacheMiB, "cache-mb", recompress.DefaultCacheSize>>20, "Memory for transcoded pages shared across archives (negative disables)")
	cmd.Flags().BoolVar(&keepLarger, "keep-larger", false, "Keep the original page when the JPEG is larger")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first failed archive")
	cmd.Flags().BoolVar(&useIgnore, "ignore-files", false, "Honor "+recompress.IgnoreFileName+" files while scanning")
	cmd.Flags().StringVarP(&bundlePath, "bundle", "b", "", "Also pack the repacked archives into a .tar.xz bundle")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Simulate without writing anything")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show detailed output")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Minimal output (overrides verbose)")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// verboseCallback prints one line per archive event instead of progress bars
func verboseCallback() recompress.ProgressCallback {
	return func(event recompress.ProgressEvent) {
		switch event.Type {
		case recompress.EventStart:
			fmt.Printf("Found %d archives\n", event.Total)
		case recompress.EventArchiveExtracted:
			fmt.Printf("  Extracted %s (%d images)\n", event.Archive, event.Total)
		case recompress.EventImageFallback:
			fmt.Printf("  Kept %s/%s as-is: %v\n", event.Archive, event.Entry, event.Err)
		case recompress.EventArchivePersisted:
			ratio := 0.0
			if event.BeforeBytes > 0 {
				ratio = float64(event.AfterBytes) / float64(event.BeforeBytes) * 100
			}
			fmt.Printf("  Finished %s → %.1f MiB (%.1f%%)\n",
				event.Archive, float64(event.AfterBytes)/1024/1024, ratio)
		case recompress.EventError:
			fmt.Fprintf(os.Stderr, "  Error: %v\n", event.Err)
		}
	}
}
