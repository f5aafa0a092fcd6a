package fntrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEnabled(t *testing.T) {
	assert.False(t, (*TelemetryConfig)(nil).IsEnabled())
	assert.False(t, (&TelemetryConfig{}).IsEnabled())
	assert.True(t, (&TelemetryConfig{Enabled: boolPtr(true)}).IsEnabled())
}

func TestFunctionConfig(t *testing.T) {
	assert.True(t, (*FunctionConfig)(nil).IsEnabled())
	assert.True(t, (&FunctionConfig{}).IsEnabled())
	assert.False(t, (&FunctionConfig{Enabled: boolPtr(false)}).IsEnabled())
}

func TestTelemetryConfigAccessors(t *testing.T) {
	var nilCfg *TelemetryConfig
	assert.Nil(t, nilCfg.GetSamplingConfig())
	assert.Equal(t, "otlp", nilCfg.GetTracesExporter())
	assert.NotNil(t, nilCfg.GetOTLPConfig())

	cfg := &TelemetryConfig{
		Traces: &TracesConfig{
			Exporter: "console",
			Sampling: &SamplingConfig{Sampler: "always_on"},
		},
	}
	assert.Equal(t, "console", cfg.GetTracesExporter())
	assert.Equal(t, "always_on", cfg.GetSamplingConfig().Sampler)
}

func TestPropConfig(t *testing.T) {
	var nilCfg *PropConfig
	assert.Equal(t, []string{"tracecontext", "baggage"}, nilCfg.Names())
	assert.Equal(t, []string{"tracecontext", "baggage"}, (&PropConfig{Propagators: " , "}).Names())

	cfg := &PropConfig{Propagators: " b3 , jaeger"}
	assert.Equal(t, []string{"b3", "jaeger"}, cfg.Names())
}
