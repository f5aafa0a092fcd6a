package fntrace

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// exporterParams holds the effective settings for one signal's exporter.
type exporterParams struct {
	Type        string // "otlp", "console", "nop"
	Protocol    string // "grpc", "http/protobuf"
	Endpoint    string // host:port or URL
	Headers     map[string]string
	Timeout     time.Duration
	Compression string // "gzip", "none"
	Insecure    bool
}

func (p exporterParams) isHTTP() bool {
	return p.Protocol == "http/protobuf" || p.Protocol == "http"
}

// resolveExporterParams merges the shared OTLP settings with the
// signal-specific exporter type and endpoint override.
func resolveExporterParams(cfg *TelemetryConfig, exporter, endpoint string) exporterParams {
	params := exporterParams{
		Type:     "otlp",
		Protocol: "grpc",
		Endpoint: "localhost:4317",
		Timeout:  10 * time.Second,
		Insecure: true,
	}

	otlp := cfg.GetOTLPConfig()
	if otlp.Endpoint != "" {
		params.Endpoint = otlp.Endpoint
	}
	if otlp.Protocol != "" {
		params.Protocol = otlp.Protocol
	}
	if otlp.Timeout > 0 {
		params.Timeout = normalizeDuration(otlp.Timeout)
	}
	params.Headers = otlp.Headers
	params.Compression = otlp.Compression
	params.Insecure = otlp.IsInsecure()

	if exporter != "" {
		params.Type = exporter
	}
	if endpoint != "" {
		params.Endpoint = endpoint
	}
	params.Type = normalizeExporterType(params.Type)

	return params
}

// otlpOptionSet holds the option constructors of one OTLP exporter package.
// endpointURL is nil for gRPC exporters.
type otlpOptionSet[T any] struct {
	endpoint    func(string) T
	endpointURL func(string) T
	headers     func(map[string]string) T
	timeout     func(time.Duration) T
	insecure    func() T
	gzip        func() T
}

func (s otlpOptionSet[T]) build(p exporterParams) []T {
	var opts []T
	if s.endpointURL != nil && isURL(p.Endpoint) {
		opts = append(opts, s.endpointURL(p.Endpoint))
	} else {
		opts = append(opts, s.endpoint(p.Endpoint))
	}
	if len(p.Headers) > 0 {
		opts = append(opts, s.headers(p.Headers))
	}
	if p.Timeout > 0 {
		opts = append(opts, s.timeout(p.Timeout))
	}
	if p.Insecure {
		opts = append(opts, s.insecure())
	}
	if p.Compression == "gzip" {
		opts = append(opts, s.gzip())
	}

	return opts
}

// nopSpanExporter is a no-op span exporter.
type nopSpanExporter struct{}

func (nopSpanExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }
func (nopSpanExporter) Shutdown(context.Context) error                             { return nil }

// buildTraceExporter creates a trace exporter based on configuration.
func buildTraceExporter(ctx context.Context, cfg *TelemetryConfig) (sdktrace.SpanExporter, error) {
	var endpoint string
	if cfg.Traces != nil {
		endpoint = cfg.Traces.Endpoint
	}
	params := resolveExporterParams(cfg, cfg.GetTracesExporter(), endpoint)

	switch params.Type {
	case "console":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none", "nop":
		return nopSpanExporter{}, nil
	}

	if params.isHTTP() {
		return otlptrace.New(ctx, otlptracehttp.NewClient(otlpOptionSet[otlptracehttp.Option]{
			endpoint:    otlptracehttp.WithEndpoint,
			endpointURL: otlptracehttp.WithEndpointURL,
			headers:     otlptracehttp.WithHeaders,
			timeout:     otlptracehttp.WithTimeout,
			insecure:    otlptracehttp.WithInsecure,
			gzip:        func() otlptracehttp.Option { return otlptracehttp.WithCompression(otlptracehttp.GzipCompression) },
		}.build(params)...))
	}

	return otlptrace.New(ctx, otlptracegrpc.NewClient(otlpOptionSet[otlptracegrpc.Option]{
		endpoint: otlptracegrpc.WithEndpoint,
		headers:  otlptracegrpc.WithHeaders,
		timeout:  otlptracegrpc.WithTimeout,
		insecure: otlptracegrpc.WithInsecure,
		gzip:     func() otlptracegrpc.Option { return otlptracegrpc.WithCompressor("gzip") },
	}.build(params)...))
}

// nopLogExporter is a no-op log exporter.
type nopLogExporter struct{}

func (nopLogExporter) Export(context.Context, []sdklog.Record) error { return nil }
func (nopLogExporter) Shutdown(context.Context) error                { return nil }
func (nopLogExporter) ForceFlush(context.Context) error              { return nil }

// buildLogExporter creates a log exporter based on configuration.
func buildLogExporter(ctx context.Context, cfg *TelemetryConfig) (sdklog.Exporter, error) {
	var exporter, endpoint string
	if cfg.Logs != nil {
		exporter, endpoint = cfg.Logs.Exporter, cfg.Logs.Endpoint
	}
	params := resolveExporterParams(cfg, exporter, endpoint)

	switch params.Type {
	case "console":
		return stdoutlog.New(stdoutlog.WithPrettyPrint())
	case "none", "nop":
		return nopLogExporter{}, nil
	}

	if params.isHTTP() {
		return otlploghttp.New(ctx, otlpOptionSet[otlploghttp.Option]{
			endpoint:    otlploghttp.WithEndpoint,
			endpointURL: otlploghttp.WithEndpointURL,
			headers:     otlploghttp.WithHeaders,
			timeout:     otlploghttp.WithTimeout,
			insecure:    otlploghttp.WithInsecure,
			gzip:        func() otlploghttp.Option { return otlploghttp.WithCompression(otlploghttp.GzipCompression) },
		}.build(params)...)
	}

	return otlploggrpc.New(ctx, otlpOptionSet[otlploggrpc.Option]{
		endpoint: otlploggrpc.WithEndpoint,
		headers:  otlploggrpc.WithHeaders,
		timeout:  otlploggrpc.WithTimeout,
		insecure: otlploggrpc.WithInsecure,
		gzip:     func() otlploggrpc.Option { return otlploggrpc.WithCompressor("gzip") },
	}.build(params)...)
}

// nopMetricExporter is a no-op metric exporter.
type nopMetricExporter struct{}

func (nopMetricExporter) Export(context.Context, *metricdata.ResourceMetrics) error { return nil }
func (nopMetricExporter) Temporality(k sdkmetric.InstrumentKind) metricdata.Temporality {
	return sdkmetric.DefaultTemporalitySelector(k)
}

func (nopMetricExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(k)
}
func (nopMetricExporter) ForceFlush(context.Context) error { return nil }
func (nopMetricExporter) Shutdown(context.Context) error   { return nil }

// buildMetricExporter creates a metric exporter based on configuration.
func buildMetricExporter(ctx context.Context, cfg *TelemetryConfig) (sdkmetric.Exporter, error) {
	var exporter, endpoint string
	if cfg.Metrics != nil {
		exporter, endpoint = cfg.Metrics.Exporter, cfg.Metrics.Endpoint
	}
	params := resolveExporterParams(cfg, exporter, endpoint)

	switch params.Type {
	case "console":
		return stdoutmetric.New(stdoutmetric.WithPrettyPrint())
	case "none", "nop":
		return nopMetricExporter{}, nil
	}

	if params.isHTTP() {
		return otlpmetrichttp.New(ctx, otlpOptionSet[otlpmetrichttp.Option]{
			endpoint:    otlpmetrichttp.WithEndpoint,
			endpointURL: otlpmetrichttp.WithEndpointURL,
			headers:     otlpmetrichttp.WithHeaders,
			timeout:     otlpmetrichttp.WithTimeout,
			insecure:    otlpmetrichttp.WithInsecure,
			gzip:        func() otlpmetrichttp.Option { return otlpmetrichttp.WithCompression(otlpmetrichttp.GzipCompression) },
		}.build(params)...)
	}

	return otlpmetricgrpc.New(ctx, otlpOptionSet[otlpmetricgrpc.Option]{
		endpoint: otlpmetricgrpc.WithEndpoint,
		headers:  otlpmetricgrpc.WithHeaders,
		timeout:  otlpmetricgrpc.WithTimeout,
		insecure: otlpmetricgrpc.WithInsecure,
		gzip:     func() otlpmetricgrpc.Option { return otlpmetricgrpc.WithCompressor("gzip") },
	}.build(params)...)
}

func normalizeExporterType(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "":
		return "otlp"
	case "stdout":
		return "console"
	case "noop":
		return "nop"
	default:
		return v
	}
}

// normalizeDuration reads sub-millisecond values as milliseconds, the unit of numeric OTel env vars.
func normalizeDuration(value time.Duration) time.Duration {
	if value > 0 && value < time.Millisecond {
		//nolint:durationcheck // numeric env values are milliseconds
		return value * time.Millisecond
	}

	return value
}

// isURL reports whether endpoint carries an http or https scheme.
func isURL(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}
