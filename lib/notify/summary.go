package notify

import (
	"diningsync/lib/upload"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderReport renders an upload report as a plain text table followed by
// the rejected foods, if any.
func RenderReport(report upload.Report) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Run", "Committed", "Failed", "Remaining", "Status", "Took"})

	status := "complete"
	if report.Aborted {
		status = "aborted"
	}
	took := report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)
	t.AppendRow(table.Row{
		report.RunID,
		len(report.Committed),
		len(report.Failed),
		report.Remaining,
		status,
		took.String(),
	})

	var out strings.Builder
	out.WriteString(t.Render())
	out.WriteString("\n")

	if report.Aborted && report.AbortReason != nil {
		out.WriteString(fmt.Sprintf("\nAborted: %s\n", report.AbortReason.Error()))
	}

	if len(report.Failed) > 0 {
		failed := table.NewWriter()
		failed.SetStyle(table.StyleRounded)
		failed.AppendHeader(table.Row{"Food", "Calories", "Reason"})
		for _, f := range report.Failed {
			failed.AppendRow(table.Row{f.Record.Name, f.Record.Calories.String(), f.Reason})
		}
		out.WriteString("\n")
		out.WriteString(failed.Render())
		out.WriteString("\n")
	}

	return out.String()
}
