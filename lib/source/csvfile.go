package source

import (
	"context"
	"diningsync/lib/food"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CSVFile reads a batch from a CSV file written by the scraper.
type CSVFile struct {
	Path string
}

func (s CSVFile) FetchBatch(ctx context.Context) ([]food.Record, error) {
	ctx, span := tracer.Start(ctx, "CSVFile.FetchBatch")
	defer span.End()
	span.SetAttributes(attribute.String("path", s.Path))

	f, err := os.Open(s.Path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open scrape file")
		return nil, unavailable("open %s: %s", s.Path, err.Error())
	}
	defer f.Close()

	records, err := food.ReadCSV(f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read scrape file")
		return nil, unavailable("read %s: %s", s.Path, err.Error())
	}

	slog.InfoContext(ctx, "read scraped batch", "path", s.Path, "records", len(records))
	return records, nil
}
