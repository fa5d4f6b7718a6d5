package upload

import (
	"context"
	"diningsync/lib/food"
	"diningsync/lib/history"
	"diningsync/lib/timezone"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("diningsync/lib/upload")
var meter = otel.Meter("diningsync/lib/upload")

var committedCounter, _ = meter.Int64Counter("upload.committed")
var failedCounter, _ = meter.Int64Counter("upload.failed")

// Sink accepts one food record at a time.
//
// Submit returns nil once the record is committed externally, a
// *SubmissionError when only this record was rejected, or a *SessionError
// when the sink can no longer take submissions.
type Sink interface {
	Submit(ctx context.Context, record food.Record) error
}

type Failure struct {
	Record food.Record
	Reason string
}

type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	// Committed lists the identity keys confirmed in this run, in order.
	Committed []string
	Failed    []Failure

	Aborted     bool
	AbortReason error
	// Remaining is how many queued records were never attempted.
	Remaining int
}

func newRunID() string {
	id, err := random.String(8)
	if err != nil {
		return fmt.Sprintf("%d", timezone.Now().UnixNano())
	}
	return id
}

func isFatal(err error) bool {
	var sessionErr *SessionError
	return errors.As(err, &sessionErr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Run submits every queued record in order and records each confirmed key
// in the store before moving on to the next record.
//
// Rejected records are collected in Report.Failed. A session error (or
// the context ending) stops the loop and marks the report aborted. An
// error is returned only when the store fails to record a confirmation,
// the partial report is still returned alongside it.
func Run(ctx context.Context, queue []food.Record, sink Sink, store history.Store) (Report, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	report := Report{
		RunID:     newRunID(),
		StartedAt: timezone.Now(),
		Committed: []string{},
	}
	span.SetAttributes(
		attribute.String("upload.run_id", report.RunID),
		attribute.Int("upload.queued", len(queue)),
	)

	for i, record := range queue {
		if err := ctx.Err(); err != nil {
			report.Aborted = true
			report.AbortReason = err
			report.Remaining = len(queue) - i
			slog.WarnContext(ctx, "upload cancelled", "remaining", report.Remaining)
			break
		}

		key, err := record.IdentityKey()
		if err != nil {
			report.Failed = append(report.Failed, Failure{Record: record, Reason: err.Error()})
			failedCounter.Add(ctx, 1)
			continue
		}

		err = sink.Submit(ctx, record)
		if err != nil && isFatal(err) {
			report.Aborted = true
			report.AbortReason = err
			report.Remaining = len(queue) - i
			span.RecordError(err)
			span.SetStatus(codes.Error, "upload session lost")
			slog.ErrorContext(ctx, "aborting upload", "key", key, "remaining", report.Remaining, "err", err)
			break
		}
		if err != nil {
			report.Failed = append(report.Failed, Failure{Record: record, Reason: err.Error()})
			failedCounter.Add(ctx, 1)
			slog.WarnContext(ctx, "upload rejected", "key", key, "err", err)
			continue
		}

		// a committed upload is always recorded, even if the run was
		// cancelled during the submission
		err = store.RecordConfirmed(context.WithoutCancel(ctx), key)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to record confirmation")
			report.Aborted = true
			report.AbortReason = err
			report.Remaining = len(queue) - i - 1
			report.FinishedAt = timezone.Now()
			return report, fmt.Errorf("'%s' was uploaded but could not be recorded: %w", key, err)
		}
		report.Committed = append(report.Committed, key)
		committedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("location", record.Location)))
		slog.InfoContext(ctx, "uploaded", "key", key, "progress", fmt.Sprintf("%d/%d", i+1, len(queue)))
	}

	span.SetAttributes(
		attribute.Int("upload.committed", len(report.Committed)),
		attribute.Int("upload.failed", len(report.Failed)),
		attribute.Bool("upload.aborted", report.Aborted),
	)
	report.FinishedAt = timezone.Now()
	return report, nil
}
