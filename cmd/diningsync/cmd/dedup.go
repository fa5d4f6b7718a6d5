package cmd

import (
	"context"
	"diningsync/cmd/diningsync/globals"
	"diningsync/cmd/diningsync/utils"
	"diningsync/internal/pipeline"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	dedupIn  string
	dedupOut string
)

func init() {
	dedupCmd.Flags().StringVar(&dedupIn, "in", "", "scraped batch (defaults to paths.menu)")
	dedupCmd.Flags().StringVar(&dedupOut, "out", "", "upload queue (defaults to paths.queue)")
	rootCmd.AddCommand(dedupCmd)
}

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Writes the foods of the scraped batch that were never uploaded to the upload queue.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDedup(cmd.Context(), dedupIn, dedupOut)
	},
}

func runDedup(ctx context.Context, in, out string) error {
	value := globals.Get(ctx)
	if in == "" {
		in = value.Config.Paths.Menu
	}
	if out == "" {
		out = value.Config.Paths.Queue
	}

	filter, err := value.Config.DedupFilter()
	if err != nil {
		return err
	}
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := pipeline.Dedup(ctx, in, out, store, filter)
	if err != nil {
		return err
	}

	t := utils.NewTable()
	t.AppendHeader(table.Row{"Loaded", "New", "Already uploaded", "Repeated", "Malformed", "Near matches"})
	t.AppendRow(table.Row{
		summary.Loaded,
		len(summary.New),
		summary.SkippedHistory,
		summary.SkippedBatch,
		len(summary.Malformed),
		len(summary.NearMatches),
	})
	t.Render()

	if len(summary.NearMatches) > 0 {
		near := utils.NewTable()
		near.AppendHeader(table.Row{"New food", "Looks like", "Score"})
		for _, m := range summary.NearMatches {
			near.AppendRow(table.Row{m.Key, m.Similar, fmt.Sprintf("%.2f", m.Score)})
		}
		near.Render()
	}
	fmt.Printf("Wrote %d foods to %s\n", len(summary.New), out)
	return nil
}
