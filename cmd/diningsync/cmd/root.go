package cmd

import (
	"context"
	"diningsync/cmd/diningsync/globals"
	"diningsync/internal/config"
	"diningsync/lib/history"
	"diningsync/lib/restyutil"
	"diningsync/lib/source"
	"diningsync/lib/telemetry"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "diningsync",
	Short: "diningsync keeps a diet tracker in sync with the dining hall menus.",
	Long: `diningsync takes the foods scraped off the dining hall nutrition pages,
works out which of them were never uploaded before and submits those to
the diet tracker, remembering every confirmed upload.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(debug)

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		err = telemetry.SetupFromEnv(cmd.Context(), "diningsync")
		if err != nil {
			slog.Warn("failed to setup telemetry", "err", err)
		}

		value := &globals.Value{Config: cfg, Debug: debug}
		if debug && cfg.HttpDumpDir != "" {
			output, err := restyutil.NewFilesystemOutput(cfg.HttpDumpDir)
			if err != nil {
				return fmt.Errorf("create http dump dir: %w", err)
			}
			value.HttpOutput = output
		}
		cmd.SetContext(globals.Set(cmd.Context(), value))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		err := telemetry.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "diningsync.json5", "config file, merged with its .local variant")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging and http dumps")
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context) (history.Store, error) {
	value := globals.Get(ctx)
	store, err := history.Open(ctx, value.Config.History)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func newSource(ctx context.Context) source.Source {
	value := globals.Get(ctx)
	if value.Config.Source.Kind == config.SourceHTTP {
		return source.NewHTTPFeed(value.Config.Source.Http, value.HttpOutput)
	}
	return source.CSVFile{Path: value.Config.Source.File}
}
