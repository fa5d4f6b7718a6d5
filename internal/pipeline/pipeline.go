// Package pipeline strings the fetch, dedup and upload steps together over
// the files they hand to each other.
package pipeline

import (
	"context"
	"diningsync/lib/dedup"
	"diningsync/lib/food"
	"diningsync/lib/history"
	"diningsync/lib/source"
	"diningsync/lib/upload"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("diningsync/internal/pipeline")

// Fetch pulls a batch from the source and writes it to out. Nothing is
// written when the source fails.
func Fetch(ctx context.Context, src source.Source, out string) ([]food.Record, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	batch, err := src.FetchBatch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch batch")
		return nil, err
	}
	err = writeQueue(out, batch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write batch")
		return nil, err
	}

	span.SetAttributes(attribute.Int("records", len(batch)))
	slog.InfoContext(ctx, "wrote scraped batch", "path", out, "records", len(batch))
	return batch, nil
}

type DedupSummary struct {
	Loaded int
	dedup.Result
}

// Dedup reads the scraped batch at in, filters it against the stored
// history and writes what is new to out. out always gets a header row
// even when nothing is new.
func Dedup(ctx context.Context, in, out string, store history.Store, filter dedup.Filter) (DedupSummary, error) {
	ctx, span := tracer.Start(ctx, "Dedup")
	defer span.End()

	batch, err := readQueue(in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read batch")
		return DedupSummary{}, err
	}
	hist, err := store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load history")
		return DedupSummary{}, fmt.Errorf("load history: %w", err)
	}

	res, err := filter.Run(batch, hist)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to filter batch")
		return DedupSummary{}, err
	}
	for _, m := range res.Malformed {
		slog.WarnContext(ctx, "skipped malformed record", "index", m.Index, "err", m.Err)
	}
	for _, m := range res.NearMatches {
		slog.WarnContext(
			ctx, "new food looks like one already uploaded",
			"key", m.Key,
			"similar", m.Similar,
			"score", m.Score,
		)
	}

	err = writeQueue(out, res.New)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write queue")
		return DedupSummary{}, err
	}

	span.SetAttributes(
		attribute.Int("loaded", len(batch)),
		attribute.Int("new", len(res.New)),
	)
	slog.InfoContext(
		ctx, "wrote upload queue",
		"path", out,
		"loaded", len(batch),
		"new", len(res.New),
		"skipped_history", res.SkippedHistory,
		"skipped_batch", res.SkippedBatch,
	)
	return DedupSummary{Loaded: len(batch), Result: res}, nil
}

type UploadSummary struct {
	Queued int
	// AlreadyUploaded counts queued records confirmed since the queue
	// was written.
	AlreadyUploaded int
	// Pending is what was (or, on a dry run, would be) submitted.
	Pending []food.Record
	Report  upload.Report
}

// Upload submits the queue file to the sink. The queue is filtered again
// against the current history first, so running it twice never submits a
// record twice. A dry run stops after filtering.
func Upload(ctx context.Context, queuePath string, sink upload.Sink, store history.Store, dryRun bool) (UploadSummary, error) {
	ctx, span := tracer.Start(ctx, "Upload")
	defer span.End()

	queue, err := readQueue(queuePath)
	if os.IsNotExist(err) {
		return UploadSummary{}, fmt.Errorf("no upload queue at %s, run dedup first", queuePath)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read queue")
		return UploadSummary{}, err
	}
	hist, err := store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load history")
		return UploadSummary{}, fmt.Errorf("load history: %w", err)
	}

	res, err := dedup.Filter{Policy: dedup.PolicySkip}.Run(queue, hist)
	if err != nil {
		return UploadSummary{}, err
	}
	summary := UploadSummary{
		Queued:          len(queue),
		AlreadyUploaded: res.SkippedHistory,
		Pending:         res.New,
	}
	if summary.AlreadyUploaded > 0 {
		slog.InfoContext(ctx, "skipping foods uploaded since the queue was written", "count", summary.AlreadyUploaded)
	}
	if dryRun {
		return summary, nil
	}

	report, err := upload.Run(ctx, res.New, sink, store)
	for _, m := range res.Malformed {
		report.Failed = append(report.Failed, upload.Failure{Record: m.Record, Reason: m.Err.Error()})
	}
	summary.Report = report
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload run failed")
		return summary, err
	}
	return summary, nil
}
