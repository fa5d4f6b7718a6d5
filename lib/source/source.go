// Package source produces the batches of scraped food records fed into
// deduplication.
//
// Scraping the dining site itself happens outside of this program, a
// source only reads what the scraper left behind, either as a CSV file on
// disk or as a JSON feed served over HTTP.
package source

import (
	"context"
	"diningsync/lib/food"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("diningsync/lib/source")

// ErrSourceUnavailable means the upstream could not be reached or what it
// returned no longer has the expected shape.
var ErrSourceUnavailable = errors.New("source unavailable")

type Source interface {
	FetchBatch(ctx context.Context) ([]food.Record, error)
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSourceUnavailable, fmt.Sprintf(format, args...))
}
