//revive:disable:line-length-limit
package fntrace

import (
	"strings"
	"time"

	"github.com/arloliu/fntrace/destination"
)

// TelemetryConfig is the full fntrace configuration. It loads from YAML or
// JSON through LoadConfig; environment variables use the standard OTel names
// (https://opentelemetry.io/docs/specs/otel/configuration/sdk-environment-variables/).
//
//	enabled: true
//	serviceName: word-functions
//	otlp:
//	  endpoint: collector:4317
//	function:
//	  bindings:
//	    uppercase: {input: words, output: shouts}
type TelemetryConfig struct {
	// Enabled installs providers in Setup. Off by default.
	Enabled *bool `yaml:"enabled" default:"false" env:"FNTRACE_ENABLED"`

	// Service identity, exported as resource attributes.
	ServiceName        string            `yaml:"serviceName" env:"OTEL_SERVICE_NAME" validate:"required_if=Enabled true"`
	Version            string            `yaml:"version" env:"OTEL_SERVICE_VERSION"`
	Environment        string            `yaml:"environment" env:"OTEL_DEPLOYMENT_ENVIRONMENT" default:"development"`
	ResourceAttributes map[string]string `yaml:"resourceAttributes,omitempty" env:"OTEL_RESOURCE_ATTRIBUTES"`

	// OTLP holds exporter settings shared by every signal.
	OTLP *OTLPConfig `yaml:"otlp,omitempty"`

	Traces  *TracesConfig  `yaml:"traces,omitempty"`
	Logs    *LogsConfig    `yaml:"logs,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`

	// Propagation lists the formats written next to B3 in message headers
	// and used by the process-wide propagator.
	Propagation *PropConfig `yaml:"propagation,omitempty"`

	// Function switches invocation tracing and binds functions to
	// destinations.
	Function *FunctionConfig `yaml:"function,omitempty"`
}

// OTLPConfig holds OTLP exporter settings.
type OTLPConfig struct {
	// Endpoint is "host:port" for gRPC and a URL for HTTP.
	Endpoint string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`

	Insecure *bool `yaml:"insecure" env:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`

	// Headers are sent with every export request. May hold credentials.
	Headers map[string]string `yaml:"headers,omitempty" env:"OTEL_EXPORTER_OTLP_HEADERS"`

	Protocol    string        `yaml:"protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL" default:"grpc" validate:"oneof=grpc http/protobuf http"`
	Timeout     time.Duration `yaml:"timeout" env:"OTEL_EXPORTER_OTLP_TIMEOUT" default:"10s" validate:"gte=0"`
	Compression string        `yaml:"compression,omitempty" env:"OTEL_EXPORTER_OTLP_COMPRESSION" validate:"omitempty,oneof=gzip none"`
}

// IsInsecure reports whether TLS is off. Defaults to true.
func (c *OTLPConfig) IsInsecure() bool {
	return c == nil || c.Insecure == nil || *c.Insecure
}

// TracesConfig configures span export. On unless switched off.
type TracesConfig struct {
	Enabled  *bool  `yaml:"enabled" default:"true"`
	Exporter string `yaml:"exporter" env:"OTEL_TRACES_EXPORTER" default:"otlp" validate:"oneof=otlp console stdout none"`

	// Endpoint overrides OTLP.Endpoint.
	Endpoint string `yaml:"endpoint,omitempty" env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`

	Sampling *SamplingConfig `yaml:"sampling,omitempty"`
}

// IsEnabled reports whether spans are exported.
func (c *TracesConfig) IsEnabled() bool {
	return c == nil || c.Enabled == nil || *c.Enabled
}

// LogsConfig configures log export. Opt-in.
type LogsConfig struct {
	Enabled  *bool  `yaml:"enabled" default:"false"`
	Exporter string `yaml:"exporter" env:"OTEL_LOGS_EXPORTER" default:"otlp" validate:"oneof=otlp console stdout none"`

	// Endpoint overrides OTLP.Endpoint.
	Endpoint string `yaml:"endpoint,omitempty" env:"OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"`
}

// IsEnabled reports whether logs are exported.
func (c *LogsConfig) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

// MetricsConfig configures metric export. Opt-in.
type MetricsConfig struct {
	Enabled  *bool  `yaml:"enabled" default:"false"`
	Exporter string `yaml:"exporter" env:"OTEL_METRICS_EXPORTER" default:"otlp" validate:"oneof=otlp console stdout none"`

	// Endpoint overrides OTLP.Endpoint.
	Endpoint string `yaml:"endpoint,omitempty" env:"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"`

	// Interval between exports. A bare number in the environment is
	// milliseconds.
	Interval time.Duration `yaml:"interval,omitempty" env:"OTEL_METRIC_EXPORT_INTERVAL" default:"60s" validate:"omitempty,gt=0"`
}

// IsEnabled reports whether metrics are exported.
func (c *MetricsConfig) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

// SamplingConfig selects the trace sampler.
type SamplingConfig struct {
	Sampler string `yaml:"sampler" env:"OTEL_TRACES_SAMPLER" default:"parentbased_always_on" validate:"oneof=always_on always_off traceidratio parentbased_always_on parentbased_always_off parentbased_traceidratio"`

	// SamplerArg is the ratio for the traceidratio samplers.
	SamplerArg float64 `yaml:"samplerArg" env:"OTEL_TRACES_SAMPLER_ARG" default:"1.0" validate:"gte=0,lte=1"`
}

// FunctionConfig configures tracing of function invocations.
type FunctionConfig struct {
	// Enabled set to false makes Wrapper call functions directly.
	Enabled *bool `yaml:"enabled" env:"FNTRACE_FUNCTION_ENABLED" default:"true"`

	// Bindings maps function ids to their input and output destinations.
	Bindings map[string]destination.Binding `yaml:"bindings,omitempty"`
}

// IsEnabled reports whether invocations are traced. Defaults to true.
func (c *FunctionConfig) IsEnabled() bool {
	return c == nil || c.Enabled == nil || *c.Enabled
}

// Resolver returns a destination resolver for the configured bindings.
func (c *FunctionConfig) Resolver() destination.Resolver {
	if c == nil {
		return destination.Nop
	}

	return destination.Bindings(c.Bindings)
}

// PropConfig configures context propagation.
type PropConfig struct {
	// Propagators is a comma-separated list of tracecontext, baggage, b3,
	// b3multi, jaeger, ottrace, xray or none.
	Propagators string `yaml:"propagators" env:"OTEL_PROPAGATORS" default:"tracecontext,baggage"`
}

var defaultPropagators = []string{"tracecontext", "baggage"}

// Names returns the configured propagator names, tracecontext and baggage
// when unset.
func (c *PropConfig) Names() []string {
	if c == nil {
		return defaultPropagators
	}
	names := splitPropagators(c.Propagators)
	if len(names) == 0 {
		return defaultPropagators
	}

	return names
}

func splitPropagators(propagators string) []string {
	var out []string
	for p := range strings.SplitSeq(propagators, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

// IsEnabled reports whether telemetry is on. Defaults to false.
func (c *TelemetryConfig) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

// GetSamplingConfig returns the trace sampling config, or nil.
func (c *TelemetryConfig) GetSamplingConfig() *SamplingConfig {
	if c == nil || c.Traces == nil {
		return nil
	}

	return c.Traces.Sampling
}

// GetTracesExporter returns the traces exporter type, "otlp" when unset.
func (c *TelemetryConfig) GetTracesExporter() string {
	if c == nil || c.Traces == nil || c.Traces.Exporter == "" {
		return "otlp"
	}

	return c.Traces.Exporter
}

// GetOTLPConfig returns the shared OTLP config, never nil.
func (c *TelemetryConfig) GetOTLPConfig() *OTLPConfig {
	if c == nil || c.OTLP == nil {
		return &OTLPConfig{}
	}

	return c.OTLP
}

func boolPtr(v bool) *bool { return &v }
