package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fetchkit/fetchkit/internal/manifest"
	"github.com/fetchkit/fetchkit/internal/output"
)

func newFetchCmd() *cobra.Command {
	var destDir string
	var noExtract bool
	var s3Profile string

	cmd := &cobra.Command{
		Use:   "fetch [MANIFEST]",
		Short: "Download every URL in a text manifest and extract zip artifacts",
		Long:  "Reads a whitespace-separated URL list (default file_urls.txt), downloads each artifact into the destination directory, and replaces zip artifacts with their extracted contents.",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			manifestPath := "file_urls.txt"
			if len(args) > 0 {
				manifestPath = args[0]
			}
			entries, err := manifest.ReadList(manifestPath)
			if err != nil {
				output.PrintError(fmt.Sprintf("Failed to read manifest: %v", err))
				os.Exit(1)
			}
			if len(entries) == 0 {
				output.PrintWarning("No URLs found in manifest")
				return
			}
			runEntries(entries, destDir, !noExtract, s3Profile)
		},
	}

	cmd.Flags().StringVarP(&destDir, "dir", "d", "input_data", "Destination directory for downloaded artifacts")
	cmd.Flags().BoolVar(&noExtract, "no-extract", false, "Keep zip artifacts instead of extracting them")
	cmd.Flags().StringVar(&s3Profile, "profile", "default", "AWS shared config profile for s3:// entries")
	return cmd
}
