package fntrace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/fntrace/message"
	"github.com/arloliu/fntrace/span"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Bootstrap errors. The per-signal errors let callers treat a switched-off
// signal as a non-failure.
var (
	ErrDisabled            = errors.New("fntrace: telemetry is disabled")
	ErrTracesDisabled      = errors.New("fntrace: traces export is disabled")
	ErrLogsDisabled        = errors.New("fntrace: logs export is disabled")
	ErrMetricsDisabled     = errors.New("fntrace: metrics export is disabled")
	ErrServiceNameRequired = errors.New("fntrace: service name is required")
)

const defaultMetricInterval = 60 * time.Second

// NewTracerProvider builds a batching TracerProvider for cfg and installs it,
// together with the OTEL_PROPAGATORS propagator, as the global default.
func NewTracerProvider(ctx context.Context, cfg *TelemetryConfig) (*sdktrace.TracerProvider, error) {
	res, err := signalResource(ctx, cfg, ErrTracesDisabled, func() bool { return cfg.Traces.IsEnabled() })
	if err != nil {
		return nil, err
	}

	exporter, err := buildTraceExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("fntrace: build trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(buildSampler(cfg.GetSamplingConfig())),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(buildPropagator(cfg.Propagation))

	return tp, nil
}

// NewLoggerProvider builds a batching LoggerProvider and installs it as the
// global default. Wrapper debug records go through it.
func NewLoggerProvider(ctx context.Context, cfg *TelemetryConfig) (*sdklog.LoggerProvider, error) {
	res, err := signalResource(ctx, cfg, ErrLogsDisabled, func() bool { return cfg.Logs.IsEnabled() })
	if err != nil {
		return nil, err
	}

	exporter, err := buildLogExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("fntrace: build log exporter: %w", err)
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(lp)

	return lp, nil
}

// NewMeterProvider builds a MeterProvider with a periodic reader and installs
// it as the global default. Invocation metrics are recorded through it.
func NewMeterProvider(ctx context.Context, cfg *TelemetryConfig) (*sdkmetric.MeterProvider, error) {
	res, err := signalResource(ctx, cfg, ErrMetricsDisabled, func() bool { return cfg.Metrics.IsEnabled() })
	if err != nil {
		return nil, err
	}

	exporter, err := buildMetricExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("fntrace: build metric exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter,
		sdkmetric.WithInterval(normalizeMetricInterval(cfg.Metrics.Interval, defaultMetricInterval)),
	)
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)

	return mp, nil
}

// signalResource checks that telemetry and the signal are on, then builds
// the shared resource.
func signalResource(
	ctx context.Context,
	cfg *TelemetryConfig,
	offErr error,
	signalOn func() bool,
) (*resource.Resource, error) {
	switch {
	case !cfg.IsEnabled():
		return nil, ErrDisabled
	case !signalOn():
		return nil, offErr
	}

	return buildResource(ctx, cfg)
}

// buildResource describes the service: name, version, environment and any
// extra OTEL_RESOURCE_ATTRIBUTES.
func buildResource(ctx context.Context, cfg *TelemetryConfig) (*resource.Resource, error) {
	if cfg.ServiceName == "" {
		return nil, ErrServiceNameRequired
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.Version),
		semconv.DeploymentEnvironment(cfg.Environment),
	}
	for k, v := range cfg.ResourceAttributes {
		if k != "" {
			attrs = append(attrs, attribute.String(k, v))
		}
	}

	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("fntrace: create resource: %w", err)
	}

	return res, nil
}

// normalizeMetricInterval reads sub-millisecond values as a bare millisecond
// count: OTEL_METRIC_EXPORT_INTERVAL=5000 decodes to 5000ns.
func normalizeMetricInterval(value, fallback time.Duration) time.Duration {
	switch {
	case value <= 0:
		return fallback
	case value < time.Millisecond:
		return time.Duration(value.Nanoseconds()) * time.Millisecond
	default:
		return value
	}
}

// samplers maps OTEL_TRACES_SAMPLER names to samplers. Parent-based
// samplers honor a B3 "X-B3-Sampled: 0" from upstream.
var samplers = map[string]func(ratio float64) sdktrace.Sampler{
	"always_on":  func(float64) sdktrace.Sampler { return sdktrace.AlwaysSample() },
	"always_off": func(float64) sdktrace.Sampler { return sdktrace.NeverSample() },
	"traceidratio": func(r float64) sdktrace.Sampler {
		return sdktrace.TraceIDRatioBased(r)
	},
	"parentbased_always_on": func(float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	},
	"parentbased_always_off": func(float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.NeverSample())
	},
	"parentbased_traceidratio": func(r float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(r))
	},
}

// buildSampler returns the configured sampler, parentbased_always_on when
// unset or unknown. New roots whose upstream sent only an accept or debug
// flag are always sampled.
func buildSampler(cfg *SamplingConfig) sdktrace.Sampler {
	if cfg != nil {
		if mk, ok := samplers[cfg.Sampler]; ok {
			return upstreamSampler{base: mk(cfg.SamplerArg)}
		}
	}

	return upstreamSampler{base: sdktrace.ParentBased(sdktrace.AlwaysSample())}
}

// upstreamSampler samples roots marked by span.SamplingFromContext and
// defers everything else to base.
type upstreamSampler struct {
	base sdktrace.Sampler
}

func (s upstreamSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	psc := trace.SpanContextFromContext(p.ParentContext)
	if !psc.IsValid() && span.SamplingFromContext(p.ParentContext) == message.SamplingAccept {
		return sdktrace.SamplingResult{
			Decision:   sdktrace.RecordAndSample,
			Tracestate: psc.TraceState(),
		}
	}

	return s.base.ShouldSample(p)
}

func (s upstreamSampler) Description() string {
	return "Upstream{" + s.base.Description() + "}"
}
