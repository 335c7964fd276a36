package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "cbzpack",
	Short:   "cbzpack - recompress comic book archives",
	Long:    "cbzpack re-encodes the pages of .cbz archives as JPEG and repacks them with maximum deflate compression.",
	Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),

	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
