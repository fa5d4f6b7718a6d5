package notify

import (
	"context"
	"diningsync/lib/food"
	"diningsync/lib/upload"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var started = time.Date(2024, 9, 3, 8, 0, 0, 0, time.UTC)

func abortedReport() upload.Report {
	return upload.Report{
		RunID:      "k3j9x0aa",
		StartedAt:  started,
		FinishedAt: started.Add(time.Second * 3),
		Committed:  []string{"Biscuit_190"},
		Failed: []upload.Failure{
			{Record: food.Record{Name: "Grits", Calories: food.Amount(140)}, Reason: "submission rejected: duplicate"},
		},
		Aborted:     true,
		AbortReason: errors.New("upload session lost: 401 Unauthorized"),
		Remaining:   2,
	}
}

func TestRenderReport(t *testing.T) {
	rendered := RenderReport(abortedReport())

	require.Contains(t, rendered, "k3j9x0aa")
	require.Contains(t, rendered, "aborted")
	require.Contains(t, rendered, "3s")
	require.Contains(t, rendered, "Aborted: upload session lost: 401 Unauthorized")
	require.Contains(t, rendered, "Grits")
	require.Contains(t, rendered, "submission rejected: duplicate")
}

func TestRenderReportComplete(t *testing.T) {
	rendered := RenderReport(upload.Report{
		RunID:      "aaaaaaaa",
		StartedAt:  started,
		FinishedAt: started,
		Committed:  []string{"Apple_95"},
	})
	require.Contains(t, rendered, "complete")
	require.NotContains(t, rendered, "Reason")
}

func TestNewSummaryEmail(t *testing.T) {
	config := Config{
		Smtp: SmtpConfig{Server: "smtp.example.com", Port: 587, EmailAddress: "bot@example.com"},
		To:   []string{"me@example.com"},
	}
	mail := NewSummaryEmail(config, abortedReport())

	require.Equal(t, "diningsync <bot@example.com>", mail.From)
	require.Equal(t, []string{"me@example.com"}, mail.To)
	require.Equal(t, "diningsync: upload aborted (1 committed, 2 remaining)", mail.Subject)
	require.True(t, strings.HasPrefix(string(mail.Text), "Upload run k3j9x0aa finished at 2024-09-03 08:00:03 UTC."))
}

func TestSubject(t *testing.T) {
	require.Equal(t, "diningsync: 2 uploaded", Subject(upload.Report{Committed: []string{"a", "b"}}))
	require.Equal(t, "diningsync: 0 uploaded, 1 failed", Subject(upload.Report{Failed: []upload.Failure{{}}}))
}

func TestSendSummarySkips(t *testing.T) {
	// nothing configured, nothing dialed
	require.NoError(t, SendSummary(context.Background(), Config{}, abortedReport()))

	config := Config{
		Smtp:          SmtpConfig{Server: "127.0.0.1", Port: 1},
		To:            []string{"me@example.com"},
		OnlyOnFailure: true,
	}
	require.NoError(t, SendSummary(context.Background(), config, upload.Report{Committed: []string{"Apple_95"}}))
}
