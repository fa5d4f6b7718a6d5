package cmd

import (
	"context"
	"diningsync/cmd/diningsync/globals"
	"diningsync/internal/pipeline"
	"fmt"

	"github.com/spf13/cobra"
)

var fetchOut string

func init() {
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "where to write the batch (defaults to paths.menu)")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Reads a freshly scraped batch from the configured source.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetch(cmd.Context(), fetchOut)
	},
}

func fetch(ctx context.Context, out string) error {
	value := globals.Get(ctx)
	if out == "" {
		out = value.Config.Paths.Menu
	}
	batch, err := pipeline.Fetch(ctx, newSource(ctx), out)
	if err != nil {
		return err
	}
	fmt.Printf("Fetched %d foods into %s\n", len(batch), out)
	return nil
}
