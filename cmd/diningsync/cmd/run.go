package cmd

import (
	"github.com/spf13/cobra"
)

var runDryRun bool

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "stop before submitting anything")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetches, dedups and uploads in one go.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		err := fetch(ctx, "")
		if err != nil {
			return err
		}
		err = runDedup(ctx, "", "")
		if err != nil {
			return err
		}
		return runUpload(ctx, "", runDryRun)
	},
}
