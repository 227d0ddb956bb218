// Package otel configures process-wide OpenTelemetry tracing.
package otel

import (
	"context"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Env holds the tracing settings read from the environment.
type Env struct {
	Endpoint    string  `env:"CARCASSONNE_OTEL_ENDPOINT"`
	Enabled     string  `env:"CARCASSONNE_OTEL_ENABLED"`
	SampleRatio float64 `env:"CARCASSONNE_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// active reports whether tracing should be exported.
func (e Env) active() bool {
	if strings.EqualFold(strings.TrimSpace(e.Enabled), "false") {
		return false
	}
	return strings.TrimSpace(e.Endpoint) != ""
}

func (e Env) sampler() sdktrace.Sampler {
	switch {
	case e.SampleRatio >= 1:
		return sdktrace.AlwaysSample()
	case e.SampleRatio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(e.SampleRatio))
	}
}

// Setup initialises OpenTelemetry tracing for the given service.
//
// Tracing is opt-in: when CARCASSONNE_OTEL_ENDPOINT is empty or
// CARCASSONNE_OTEL_ENABLED is "false", Setup returns a no-op shutdown
// function and the global provider stays the default no-op provider, so
// tracers obtained by services cost nothing.
//
// The returned shutdown function flushes pending spans and should be deferred
// by the caller.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return noop, fmt.Errorf("parse otel env: %w", err)
	}
	if !cfg.active() {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(strings.TrimSpace(cfg.Endpoint)),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(cfg.sampler()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
