package cmd

import (
	"context"
	"diningsync/cmd/diningsync/globals"
	"diningsync/cmd/diningsync/utils"
	"diningsync/internal/pipeline"
	"diningsync/lib/notify"
	"diningsync/lib/telemetry"
	"diningsync/lib/upload"
	"diningsync/lib/upload/httpsink"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	uploadQueue  string
	uploadDryRun bool
)

var errAborted = errors.New("upload aborted")

func init() {
	uploadCmd.Flags().StringVar(&uploadQueue, "queue", "", "upload queue (defaults to paths.queue)")
	uploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false, "only list what would be uploaded")
	rootCmd.AddCommand(uploadCmd)
}

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Submits the upload queue to the diet tracker, one food at a time.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(cmd.Context(), uploadQueue, uploadDryRun)
	},
}

func runUpload(ctx context.Context, queue string, dryRun bool) error {
	value := globals.Get(ctx)
	if queue == "" {
		queue = value.Config.Paths.Queue
	}

	var sink upload.Sink
	if !dryRun {
		inner, err := httpsink.New(value.Config.Sink, value.HttpOutput)
		if err != nil {
			return err
		}
		sink = upload.RetrySink{Inner: inner, Policy: value.Config.RetryPolicy()}
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if value.Config.PerfStatsInterval > 0 {
		statsCtx, stop := context.WithCancel(ctx)
		defer stop()
		telemetry.InstrumentPerfStats(statsCtx, time.Duration(value.Config.PerfStatsInterval)*time.Second)
	}

	summary, err := pipeline.Upload(ctx, queue, sink, store, dryRun)
	if dryRun && err == nil {
		t := utils.NewTable()
		t.AppendHeader(table.Row{"Food", "Calories", "Location", "Meal"})
		for _, r := range summary.Pending {
			t.AppendRow(table.Row{r.Name, r.Calories.String(), r.Location, r.Meal})
		}
		t.AppendFooter(table.Row{fmt.Sprintf("%d to upload", len(summary.Pending)), "", "", fmt.Sprintf("%d already uploaded", summary.AlreadyUploaded)})
		t.Render()
		return nil
	}
	if summary.Report.RunID == "" {
		return err
	}

	fmt.Print(notify.RenderReport(summary.Report))
	mailErr := notify.SendSummary(ctx, value.Config.Notify, summary.Report)
	if mailErr != nil {
		slog.WarnContext(ctx, "failed to send summary email", "err", mailErr)
	}

	if err != nil {
		return err
	}
	if summary.Report.Aborted {
		return fmt.Errorf("%w: %s", errAborted, summary.Report.AbortReason)
	}
	return nil
}
