// cmd/cbzpack/unbundle_cmd.go

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"

	"github.com/creativeyann17/go-cbzpack/pkg/unbundle"
)

func init() {
	rootCmd.AddCommand(unbundleCmd())
}

func unbundleCmd() *cobra.Command {
	var inputPath, outputPath string
	var verbose bool
	var quiet bool
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "unbundle",
		Short: "Extract the archives of a .tar.xz bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Add extension if missing
			if inputPath != "" && !strings.HasSuffix(inputPath, ".tar.xz") && !strings.HasSuffix(inputPath, ".txz") {
				inputPath += ".tar.xz"
			}

			opts := &unbundle.Options{
				InputPath:  inputPath,
				OutputPath: outputPath,
				Verbose:    verbose,
				Quiet:      quiet,
				Overwrite:  overwrite,
			}

			if err := opts.Validate(); err != nil {
				return err
			}

			// Logging helper
			log := func(format string, args ...interface{}) {
				if !opts.Quiet {
					fmt.Printf(format+"\n", args...)
				}
			}

			log("Starting extraction...")
			log("  Input:       %s", opts.InputPath)
			log("  Output:      %s", opts.OutputPath)
			if overwrite {
				log("  Mode:        OVERWRITE (replacing existing archives)")
			}
			log("")

			var progressCb unbundle.ProgressCallback
			var progress *mpb.Progress

			switch {
			case opts.Verbose:
				progressCb = func(event unbundle.ProgressEvent) {
					switch event.Type {
					case unbundle.EventArchiveComplete:
						fmt.Printf("  Extracted %s (%.1f MiB)\n", event.Archive, float64(event.Total)/1024/1024)
					case unbundle.EventError:
						fmt.Printf("  Error on %s\n", event.Archive)
					}
				}
			case !opts.Quiet:
				progressCb, progress = unbundle.ProgressBarCallback(opts.ProgressWriter)
			}

			result, err := unbundle.Unbundle(opts, progressCb)

			// Wait for progress bars to finish rendering
			if progress != nil {
				progress.Wait()
			}

			if err != nil {
				return err
			}

			fmt.Println()
			fmt.Print(unbundle.FormatSummary(result))

			if len(result.Errors) > 0 {
				return fmt.Errorf("finished with %d errors", len(result.Errors))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input bundle file (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", ".", "Output directory")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show detailed output")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Minimal output (overrides verbose)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing archives")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}
