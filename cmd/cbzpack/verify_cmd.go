// cmd/cbzpack/verify_cmd.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/creativeyann17/go-cbzpack/pkg/verify"
)

func init() {
	rootCmd.AddCommand(verifyCmd())
}

func verifyCmd() *cobra.Command {
	var inputPath string
	var verifyData bool
	var verbose bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a repacked archive or bundle",
		Long: `Verify that a .cbz archive (or every archive of a .tar.xz bundle) matches
what recompress writes: leaf entries only, deflate compression, 0755 permissions.

Use --data to also decompress every entry and decode every image.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &verify.Options{
				InputPath:  inputPath,
				VerifyData: verifyData,
				Verbose:    verbose,
				Quiet:      quiet,
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

			log("Verifying: %s", inputPath)
			if verifyData {
				log("Mode: Full data integrity check")
			} else {
				log("Mode: Structural validation only")
			}
			log("")

			var progressCb verify.ProgressCallback
			if opts.Verbose {
				progressCb = func(event verify.ProgressEvent) {
					switch event.Type {
					case verify.EventArchiveVerify:
						fmt.Printf("Archive %s\n", event.FilePath)
					case verify.EventEntryVerify:
						fmt.Printf("  [%d/%d] %s\n", event.Current, event.Total, event.FilePath)
					case verify.EventError:
						fmt.Printf("  Error: %s\n", event.Message)
					case verify.EventComplete:
						fmt.Printf("Verification complete\n")
					}
				}
			} else if !opts.Quiet {
				archives := 0
				progressCb = func(event verify.ProgressEvent) {
					switch event.Type {
					case verify.EventArchiveVerify:
						archives++
						fmt.Printf("\r  Archives checked: %d", archives)
					case verify.EventComplete:
						fmt.Printf("\r  Archives checked: %d\n", event.Current)
					}
				}
			}

			result, err := verify.Verify(opts, progressCb)
			if err != nil && result == nil {
				return err
			}

			fmt.Println()
			fmt.Print(result.Summary())

			if !result.IsValid() {
				return fmt.Errorf("archive verification failed")
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Archive or bundle to verify (required)")
	cmd.Flags().BoolVar(&verifyData, "data", false, "Decompress every entry and decode every image")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show detailed output")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Minimal output (overrides verbose)")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}
