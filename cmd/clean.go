package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fetchkit/fetchkit/internal/output"
	"github.com/fetchkit/fetchkit/internal/utils"
)

func newCleanCmd() *cobra.Command {
	var destDir string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove partial downloads left by an interrupted run",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := utils.CleanFunction(destDir); err != nil {
				output.PrintError("Error cleaning up temporary files")
				os.Exit(1)
			}
			output.PrintSuccess("Temporary files cleaned up")
		},
	}

	cmd.Flags().StringVarP(&destDir, "dir", "d", "input_data", "Destination directory to clean")
	return cmd
}
