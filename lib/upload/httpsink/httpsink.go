// Package httpsink submits food records to the diet tracker over HTTP.
package httpsink

import (
	"bytes"
	"context"
	"diningsync/lib/food"
	"diningsync/lib/htmlutil"
	"diningsync/lib/restyutil"
	"diningsync/lib/upload"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("diningsync/lib/upload/httpsink")

const (
	ModeJSON = "json"
	ModeForm = "form"
)

type Config struct {
	Endpoint string `json:"endpoint"`
	// "json" (default) posts the record as a JSON object, "form" posts
	// url encoded form fields.
	Mode string `json:"mode"`
	// Fields renames CSV headers to form field names in form mode, when
	// set only the listed headers are sent.
	Fields map[string]string `json:"fields"`
	// ErrorSelector matches the element a form submission renders when
	// the tracker rejected the food.
	ErrorSelector string            `json:"error_selector"`
	Token         string            `json:"token"`
	Cookie        string            `json:"cookie"`
	Headers       map[string]string `json:"headers"`
	// submissions per minute, zero means unlimited
	RatePerMinute float64 `json:"rate_per_minute"`
	// seconds, defaults to 30
	Timeout int `json:"timeout"`
}

type Sink struct {
	config  Config
	client  *resty.Client
	limiter *rate.Limiter
}

func New(config Config, output restyutil.InstrumentOutput) (Sink, error) {
	if config.Endpoint == "" {
		return Sink{}, fmt.Errorf("httpsink: no endpoint configured")
	}
	switch config.Mode {
	case "":
		config.Mode = ModeJSON
	case ModeJSON, ModeForm:
	default:
		return Sink{}, fmt.Errorf("httpsink: unknown mode '%s'", config.Mode)
	}

	client := restyutil.NewClient(restyutil.ClientOptions{
		Tracer:  tracer,
		Output:  output,
		Timeout: time.Duration(config.Timeout) * time.Second,
	})
	client.SetHeaders(config.Headers)
	if config.Token != "" {
		client.SetAuthToken(config.Token)
	}
	if config.Cookie != "" {
		client.SetHeader("cookie", config.Cookie)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RatePerMinute/60), 1)
	}

	return Sink{
		config:  config,
		client:  client,
		limiter: limiter,
	}, nil
}

func (s Sink) formData(record food.Record) map[string]string {
	headers := food.Headers()
	row := record.Row()
	data := map[string]string{}
	for i, header := range headers {
		if len(s.config.Fields) == 0 {
			data[header] = row[i]
			continue
		}
		name, ok := s.config.Fields[header]
		if ok {
			data[name] = row[i]
		}
	}
	return data
}

func (s Sink) Submit(ctx context.Context, record food.Record) error {
	ctx, span := tracer.Start(ctx, "Submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("food", record.Name),
		attribute.String("mode", s.config.Mode),
	)

	err := s.limiter.Wait(ctx)
	if err != nil {
		return err
	}

	req := s.client.R().SetContext(ctx)
	if s.config.Mode == ModeForm {
		req.SetFormData(s.formData(record))
	} else {
		req.SetHeader("content-type", "application/json").SetBody(record)
	}

	res, err := req.Post(s.config.Endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach tracker")
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &upload.SessionError{Reason: "could not reach tracker", Err: err}
	}

	err = classifyStatus(res.StatusCode(), res.Status())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tracker rejected submission")
		return err
	}

	if s.config.Mode == ModeForm && s.config.ErrorSelector != "" {
		messages, err := htmlutil.SelectText(ctx, bytes.NewReader(res.Body()), s.config.ErrorSelector)
		if err != nil {
			slog.WarnContext(ctx, "could not parse tracker response", "err", err)
			return nil
		}
		if len(messages) > 0 {
			err := &upload.SubmissionError{Reason: strings.Join(messages, "; ")}
			span.RecordError(err)
			span.SetStatus(codes.Error, "tracker rejected submission")
			return err
		}
	}

	return nil
}

func classifyStatus(code int, status string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &upload.SessionError{Reason: status}
	case code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= 500:
		return &upload.SubmissionError{Reason: status, Temporary: true}
	default:
		return &upload.SubmissionError{Reason: status}
	}
}
