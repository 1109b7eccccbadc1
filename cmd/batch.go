package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fetchkit/fetchkit/internal/manifest"
	"github.com/fetchkit/fetchkit/internal/output"
)

func newBatchCmd() *cobra.Command {
	var destDir string
	var noExtract bool
	var s3Profile string

	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Process downloads from a YAML manifest grouped by source type",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := manifest.ReadBatch(args[0])
			if err != nil {
				output.PrintError(fmt.Sprintf("Failed to read batch manifest: %v", err))
				os.Exit(1)
			}
			if len(entries) == 0 {
				output.PrintWarning("No valid entries found in the batch file")
				return
			}
			runEntries(entries, destDir, !noExtract, s3Profile)
		},
	}

	cmd.Flags().StringVarP(&destDir, "dir", "d", "input_data", "Destination directory for downloaded artifacts")
	cmd.Flags().BoolVar(&noExtract, "no-extract", false, "Keep zip artifacts instead of extracting them")
	cmd.Flags().StringVar(&s3Profile, "profile", "default", "AWS shared config profile for s3 entries")
	return cmd
}
