package fntrace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type opt struct {
	kind string
	val  string
}

func testOptionSet(withURL bool) otlpOptionSet[opt] {
	s := otlpOptionSet[opt]{
		endpoint: func(v string) opt { return opt{kind: "endpoint", val: v} },
		headers:  func(map[string]string) opt { return opt{kind: "headers"} },
		timeout:  func(d time.Duration) opt { return opt{kind: "timeout", val: d.String()} },
		insecure: func() opt { return opt{kind: "insecure"} },
		gzip:     func() opt { return opt{kind: "compression"} },
	}
	if withURL {
		s.endpointURL = func(v string) opt { return opt{kind: "endpointURL", val: v} }
	}

	return s
}

func kinds(opts []opt) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.kind)
	}

	return out
}

func TestNormalizeExporterType(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: "otlp"},
		{name: "stdout", input: "stdout", want: "console"},
		{name: "noop", input: "noop", want: "nop"},
		{name: "mixed case", input: " OTLP ", want: "otlp"},
		{name: "passthrough", input: "console", want: "console"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeExporterType(tt.input))
		})
	}
}

func TestOptionSet_HTTP(t *testing.T) {
	params := exporterParams{
		Endpoint:    "http://localhost:4318/v1/logs",
		Headers:     map[string]string{"k": "v"},
		Timeout:     5 * time.Second,
		Insecure:    true,
		Compression: "gzip",
	}

	opts := testOptionSet(true).build(params)
	assert.Equal(t, []string{"endpointURL", "headers", "timeout", "insecure", "compression"}, kinds(opts))
	assert.Equal(t, "5s", opts[2].val)

	params.Endpoint = "localhost:4318"
	params.Compression = "none"
	params.Insecure = false
	opts = testOptionSet(true).build(params)
	assert.Equal(t, []string{"endpoint", "headers", "timeout"}, kinds(opts))
}

func TestOptionSet_GRPCIgnoresURL(t *testing.T) {
	opts := testOptionSet(false).build(exporterParams{Endpoint: "http://collector:4317"})

	require.Len(t, opts, 1)
	assert.Equal(t, opt{kind: "endpoint", val: "http://collector:4317"}, opts[0])
}

func TestResolveExporterParams(t *testing.T) {
	params := resolveExporterParams(nil, "", "")
	assert.Equal(t, exporterParams{
		Type:     "otlp",
		Protocol: "grpc",
		Endpoint: "localhost:4317",
		Timeout:  10 * time.Second,
		Insecure: true,
	}, params)

	cfg := &TelemetryConfig{
		OTLP: &OTLPConfig{
			Endpoint: "collector:4317",
			Protocol: "http/protobuf",
			Insecure: boolPtr(false),
			Timeout:  500 * time.Nanosecond,
		},
	}
	params = resolveExporterParams(cfg, "stdout", "http://logs:4318")
	assert.Equal(t, "console", params.Type)
	assert.Equal(t, "http://logs:4318", params.Endpoint)
	assert.True(t, params.isHTTP())
	assert.False(t, params.Insecure)
	assert.Equal(t, 500*time.Millisecond, params.Timeout)
}

func TestBuildExporters_Nop(t *testing.T) {
	ctx := context.Background()
	cfg := &TelemetryConfig{
		Traces:  &TracesConfig{Exporter: "none"},
		Logs:    &LogsConfig{Exporter: "noop"},
		Metrics: &MetricsConfig{Exporter: "none"},
	}

	te, err := buildTraceExporter(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, nopSpanExporter{}, te)

	le, err := buildLogExporter(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, nopLogExporter{}, le)

	me, err := buildMetricExporter(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, nopMetricExporter{}, me)
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("http://localhost:4318/v1/traces"))
	assert.True(t, isURL("HTTPS://example.com"))
	assert.False(t, isURL("localhost:4317"))
	assert.False(t, isURL(""))
}
