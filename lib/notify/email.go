package notify

import (
	"context"
	"diningsync/lib/telemetry"
	"diningsync/lib/upload"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("diningsync/lib/notify")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Config struct {
	Smtp SmtpConfig `json:"smtp"`
	To   []string   `json:"to"`
	// only send a summary when something failed or the run aborted
	OnlyOnFailure bool `json:"only_on_failure"`
}

func (c Config) Enabled() bool {
	return c.Smtp.Server != "" && len(c.To) > 0
}

func Subject(report upload.Report) string {
	if report.Aborted {
		return fmt.Sprintf("diningsync: upload aborted (%d committed, %d remaining)", len(report.Committed), report.Remaining)
	}
	if len(report.Failed) > 0 {
		return fmt.Sprintf("diningsync: %d uploaded, %d failed", len(report.Committed), len(report.Failed))
	}
	return fmt.Sprintf("diningsync: %d uploaded", len(report.Committed))
}

// NewSummaryEmail builds the e-mail describing an upload run.
func NewSummaryEmail(config Config, report upload.Report) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("diningsync <%s>", config.Smtp.EmailAddress)
	mail.To = config.To
	mail.Subject = Subject(report)

	body := fmt.Sprintf(`Upload run %s finished at %s.

%s`, report.RunID, report.FinishedAt.Format("2006-01-02 15:04:05 MST"), RenderReport(report))
	mail.Text = []byte(body)
	return mail
}

// SendSummary mails the report to the configured recipients.
func SendSummary(ctx context.Context, config Config, report upload.Report) error {
	ctx, span := tracer.Start(ctx, "SendSummary")
	defer span.End()

	if !config.Enabled() {
		return nil
	}
	if config.OnlyOnFailure && !report.Aborted && len(report.Failed) == 0 {
		return nil
	}

	mail := NewSummaryEmail(config, report)
	addr := fmt.Sprintf("%s:%d", config.Smtp.Server, config.Smtp.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", config.Smtp.EmailAddress, config.Smtp.Password, config.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
