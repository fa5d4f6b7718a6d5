package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type Telemetry struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

func (t Telemetry) Shutdown(ctx context.Context) error {
	errlist := []error{}
	if t.TracerProvider != nil {
		err := t.TracerProvider.Shutdown(ctx)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	if t.MeterProvider != nil {
		err := t.MeterProvider.Shutdown(ctx)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

var current Telemetry

// Shutdown flushes and stops the providers installed by the last Setup,
// it is a no-op when telemetry was never set up.
func Shutdown(ctx context.Context) error {
	err := current.Shutdown(ctx)
	current = Telemetry{}
	return err
}

// Setup installs global otlp tracer and meter providers for serviceName.
func Setup(ctx context.Context, serviceName string, config Config) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := newResource(serviceName)
	if err != nil {
		return err
	}

	var tel Telemetry
	if config.Otlp.Traces.enabled() {
		tel.TracerProvider, err = newTraceProvider(ctx, r, config.Otlp.Traces)
		if err != nil {
			return err
		}
		otel.SetTracerProvider(tel.TracerProvider)
	}

	if config.Otlp.Metrics.enabled() {
		interval := time.Duration(config.Otlp.MetricInterval) * time.Second
		if interval <= 0 {
			interval = time.Second * 15
		}
		tel.MeterProvider, err = newMetricProvider(ctx, r, config.Otlp.Metrics, interval)
		if err != nil {
			return err
		}
		otel.SetMeterProvider(tel.MeterProvider)
	}

	current = tel
	return nil
}

func Tracer(name string) oteltrace.Tracer {
	return otel.Tracer(name)
}
