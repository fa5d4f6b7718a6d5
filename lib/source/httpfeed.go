package source

import (
	"context"
	"diningsync/lib/food"
	"diningsync/lib/restyutil"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type HTTPFeedConfig struct {
	Url     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	// seconds, defaults to 30
	Timeout int `json:"timeout"`
}

// HTTPFeed fetches a JSON array of food records from a URL.
type HTTPFeed struct {
	url    string
	client *resty.Client
}

func NewHTTPFeed(config HTTPFeedConfig, output restyutil.InstrumentOutput) HTTPFeed {
	client := restyutil.NewClient(restyutil.ClientOptions{
		Tracer:  tracer,
		Output:  output,
		Timeout: time.Duration(config.Timeout) * time.Second,
	})
	client.SetHeader("accept", "application/json")
	client.SetHeaders(config.Headers)
	return HTTPFeed{url: config.Url, client: client}
}

func (s HTTPFeed) FetchBatch(ctx context.Context) ([]food.Record, error) {
	ctx, span := tracer.Start(ctx, "HTTPFeed.FetchBatch")
	defer span.End()
	span.SetAttributes(attribute.String("url", s.url))

	if s.url == "" {
		return nil, unavailable("no feed url configured")
	}

	res, err := s.client.R().
		SetContext(ctx).
		Get(s.url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch feed")
		return nil, unavailable("fetch %s: %s", s.url, err.Error())
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "feed returned an error status")
		return nil, unavailable("fetch %s: unexpected status %s", s.url, res.Status())
	}

	var records []food.Record
	err = json.Unmarshal(res.Body(), &records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode feed")
		return nil, unavailable("decode %s: %s", s.url, err.Error())
	}
	if records == nil {
		records = []food.Record{}
	}

	span.SetAttributes(attribute.Int("records", len(records)))
	slog.InfoContext(ctx, "fetched batch", "url", s.url, "records", len(records))
	return records, nil
}
