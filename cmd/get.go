package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fetchkit/fetchkit/internal/manifest"
)

func newGetCmd() *cobra.Command {
	var destDir string
	var outputName string
	var noExtract bool
	var s3Profile string

	cmd := &cobra.Command{
		Use:   "get [URL]",
		Short: "Download a single URL (http, https or s3)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			url := args[0]
			entries := []manifest.Entry{{
				URL:        url,
				OutputName: outputName,
				SourceType: manifest.SourceTypeFor(url),
			}}
			runEntries(entries, destDir, !noExtract, s3Profile)
		},
	}

	cmd.Flags().StringVarP(&outputName, "output", "o", "", "Artifact name (inferred from the URL if not provided)")
	cmd.Flags().StringVarP(&destDir, "dir", "d", "input_data", "Destination directory for downloaded artifacts")
	cmd.Flags().BoolVar(&noExtract, "no-extract", false, "Keep zip artifacts instead of extracting them")
	cmd.Flags().StringVar(&s3Profile, "profile", "default", "AWS shared config profile for s3:// URLs")
	return cmd
}
