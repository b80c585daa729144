// Package instrument owns the observability plumbing: OTLP trace, metric and
// log exporters behind one Instrumentation handle, plus the process-wide slog
// default with correlation ids and secret redaction.
package instrument

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Instrumentation hands out tracers and meters and flushes them on shutdown.
// Components receive it by injection so tests can pass NewNoop().
type Instrumentation interface {
	Tracer(name string) trace.Tracer
	Meter(name string) metric.Meter
	Shutdown(ctx context.Context) error
}

// Config mirrors the instrument.* block of the config file.
type Config struct {
	// Enabled gates the whole pipeline; when false New returns the noop.
	Enabled bool
	// ServiceName and ServiceVersion become resource attributes on every signal.
	ServiceName    string
	ServiceVersion string
	// Environment tags signals with the deployment environment.
	Environment string
	// OTLPEndpoint is the collector address for all three exporters.
	OTLPEndpoint string
	// OTLPSecure enables TLS toward the collector.
	OTLPSecure bool
	// TraceSampleRatio is clamped to [0,1]; parent decisions win.
	TraceSampleRatio float64
	// MetricsInterval is how often the periodic reader pushes metrics.
	MetricsInterval time.Duration
	// MaskFields lists log attribute names whose values are redacted.
	MaskFields []string
}

type otelInstrumentation struct {
	traces  *sdktrace.TracerProvider
	metrics *sdkmetric.MeterProvider
	logs    *sdklog.LoggerProvider
}

// New wires the OTLP pipeline and installs the slog default. A nil or
// disabled config yields the noop so local runs need no collector.
func New(ctx context.Context, cfg *Config) (Instrumentation, error) {
	if cfg == nil || !cfg.Enabled {
		return NewNoop(), nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("env", cfg.Environment),
	))
	if err != nil {
		return nil, err
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if !cfg.OTLPSecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		logOpts = append(logOpts, otlploggrpc.WithInsecure())
	}

	traceExporter, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, err
	}
	metricExporter, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return nil, err
	}
	logExporter, err := otlploggrpc.New(ctx, logOpts...)
	if err != nil {
		return nil, err
	}

	ratio := min(max(cfg.TraceSampleRatio, 0), 1)

	ins := &otelInstrumentation{
		traces: sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
			sdktrace.WithBatcher(traceExporter),
		),
		metrics: sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(
				metricExporter,
				sdkmetric.WithInterval(cfg.MetricsInterval),
			)),
		),
		logs: sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		),
	}

	installDefaultLogger(cfg.ServiceName, ins.logs, cfg.MaskFields)

	return ins, nil
}

func (o *otelInstrumentation) Tracer(name string) trace.Tracer { return o.traces.Tracer(name) }

func (o *otelInstrumentation) Meter(name string) metric.Meter { return o.metrics.Meter(name) }

func (o *otelInstrumentation) Shutdown(ctx context.Context) error {
	return errors.Join(
		o.traces.Shutdown(ctx),
		o.metrics.Shutdown(ctx),
		o.logs.Shutdown(ctx),
	)
}

// NewNoop returns an Instrumentation that records nothing. Used by tests and
// by New when disabled.
func NewNoop() Instrumentation {
	return noopInstrumentation{
		traces:  tracenoop.NewTracerProvider(),
		metrics: metricnoop.NewMeterProvider(),
	}
}

type noopInstrumentation struct {
	traces  trace.TracerProvider
	metrics metric.MeterProvider
}

func (n noopInstrumentation) Tracer(name string) trace.Tracer { return n.traces.Tracer(name) }

func (n noopInstrumentation) Meter(name string) metric.Meter { return n.metrics.Meter(name) }

func (n noopInstrumentation) Shutdown(context.Context) error { return nil }
