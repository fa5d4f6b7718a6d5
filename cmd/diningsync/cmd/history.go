package cmd

import (
	"diningsync/cmd/diningsync/utils"
	"diningsync/lib/food"
	"diningsync/lib/history"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyCountCmd)
	historyCmd.AddCommand(historyImportCmd)
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspects the foods confirmed as uploaded.",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists every confirmed food in the order it was uploaded.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		set, err := store.Load(ctx)
		if err != nil {
			return err
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"#", "Food", "Calories"})
		for i, key := range set.Keys() {
			name, calories := food.SplitKey(key)
			t.AppendRow(table.Row{i + 1, name, calories})
		}
		t.Render()
		return nil
	},
}

var historyCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Prints how many foods were confirmed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		set, err := store.Load(ctx)
		if err != nil {
			return err
		}
		fmt.Println(set.Len())
		return nil
	},
}

var historyImportCmd = &cobra.Command{
	Use:   "import <upload_history.json>",
	Short: "Merges a json history file into the configured store.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		legacy, err := history.NewFileStore(args[0]).Load(ctx)
		if err != nil {
			return err
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		existing, err := store.Load(ctx)
		if err != nil {
			return err
		}
		added := existing.Clone().Merge(legacy)

		err = store.Persist(ctx, legacy)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d new keys (%d already present)\n", added, legacy.Len()-added)
		return nil
	},
}
