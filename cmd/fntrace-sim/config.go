package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/arloliu/fntrace"
	"github.com/arloliu/fuda"
)

// Config holds all CLI configuration.
// Uses fuda struct tags for defaults and env var binding.
type Config struct {
	// Telemetry settings
	ConfigFile  string `yaml:"configFile" env:"FNTRACE_CONFIG"`
	Endpoint    string `yaml:"endpoint" default:"localhost:4317" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	UseHTTP     bool   `yaml:"http" default:"false"`
	Insecure    *bool  `yaml:"insecure" default:"true" env:"OTEL_EXPORTER_OTLP_INSECURE"`
	ServiceName string `yaml:"serviceName" default:"fntrace-sim" env:"OTEL_SERVICE_NAME"`
	Exporter    string `yaml:"exporter" default:"otlp" env:"OTEL_TRACES_EXPORTER"`
	Propagators string `yaml:"propagators" default:"tracecontext,baggage" env:"OTEL_PROPAGATORS"`

	// Pipeline settings
	Pipeline     string `yaml:"pipeline" default:"uppercase"`
	PipelineFile string `yaml:"pipelineFile"`
	Transport    string `yaml:"transport" default:"inproc"`
	Payload      string `yaml:"payload" default:"hello world"`

	// Signals
	EnableLogs    bool `yaml:"logs" default:"false"`
	EnableMetrics bool `yaml:"metrics" default:"false"`

	// Quick mode
	Count       int `yaml:"count" default:"10"`
	Concurrency int `yaml:"concurrency" default:"1"`

	// Continuous mode
	Duration time.Duration `yaml:"duration" default:"1m"`
	Rate     float64       `yaml:"rate" default:"1"`
	Jitter   int           `yaml:"jitter" default:"20"`
}

// IsInsecure returns the insecure value, defaulting to true if nil.
func (c *Config) IsInsecure() bool {
	if c.Insecure == nil {
		return true
	}

	return *c.Insecure
}

func newConfig() *Config {
	cfg := &Config{}
	_ = fuda.SetDefaults(cfg)

	return cfg
}

func (c *Config) bindCommonFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "Telemetry config file (overrides connection flags)")
	fs.StringVar(&c.Endpoint, "endpoint", c.Endpoint, "OTLP endpoint")
	fs.BoolVar(&c.UseHTTP, "http", c.UseHTTP, "Use OTLP over HTTP instead of gRPC")
	fs.Func("insecure", "Skip TLS verification (default: true)", func(s string) error {
		val := s == "true" || s == "1"
		c.Insecure = &val

		return nil
	})
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.StringVar(&c.Exporter, "exporter", c.Exporter, "Exporter: otlp, console or none")
	fs.StringVar(&c.Propagators, "propagators", c.Propagators, "Secondary propagators written next to B3")
	fs.StringVar(&c.Pipeline, "pipeline", c.Pipeline, "Pipeline name")
	fs.StringVar(&c.PipelineFile, "pipeline-file", c.PipelineFile, "Custom YAML pipeline file")
	fs.StringVar(&c.Transport, "transport", c.Transport, "Step transport: inproc or http")
	fs.StringVar(&c.Payload, "payload", c.Payload, "Input payload")
	fs.BoolVar(&c.EnableLogs, "logs", c.EnableLogs, "Export logs")
	fs.BoolVar(&c.EnableMetrics, "metrics", c.EnableMetrics, "Export metrics")
}

func (c *Config) applyEnvOverrides() {
	_ = fuda.LoadEnv(c)
}

// telemetry returns the fntrace config for the simulator: the config file
// when one is set, otherwise a config built from the flags.
func (c *Config) telemetry() (*fntrace.TelemetryConfig, error) {
	if c.ConfigFile != "" {
		tc, err := fntrace.LoadConfig(c.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load telemetry config: %w", err)
		}

		return tc, nil
	}

	protocol := "grpc"
	if c.UseHTTP {
		protocol = "http"
	}
	enabled := true
	insecure := c.IsInsecure()

	tc := &fntrace.TelemetryConfig{
		Enabled:     &enabled,
		ServiceName: c.ServiceName,
		OTLP: &fntrace.OTLPConfig{
			Endpoint: c.Endpoint,
			Protocol: protocol,
			Insecure: &insecure,
		},
		Traces:      &fntrace.TracesConfig{Exporter: c.Exporter},
		Logs:        &fntrace.LogsConfig{Enabled: &c.EnableLogs, Exporter: c.Exporter},
		Metrics:     &fntrace.MetricsConfig{Enabled: &c.EnableMetrics, Exporter: c.Exporter, Interval: 5 * time.Second},
		Propagation: &fntrace.PropConfig{Propagators: c.Propagators},
		Function:    &fntrace.FunctionConfig{},
	}
	// Fill the remaining defaults (timeouts, sampler) from struct tags.
	if err := fuda.SetDefaults(tc); err != nil {
		return nil, fmt.Errorf("failed to apply telemetry defaults: %w", err)
	}

	return tc, nil
}
