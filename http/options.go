package http

import (
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxBodySize caps request bodies read by FunctionHandler.
const DefaultMaxBodySize = 4 << 20

// config holds telemetry and request settings shared by the server and
// client side of the package.
type config struct {
	tp          trace.TracerProvider
	mp          metric.MeterProvider
	prop        propagation.TextMapPropagator
	maxBodySize int64
}

// Option configures telemetry and request handling.
type Option func(*config)

// WithTracerProvider sets the TracerProvider for otelhttp spans.
// Default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		c.tp = tp
	}
}

// WithMeterProvider sets the MeterProvider for otelhttp metrics.
// Default is the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) {
		c.mp = mp
	}
}

// WithPropagator sets the propagator otelhttp injects and extracts with.
// Default is the global propagator.
func WithPropagator(prop propagation.TextMapPropagator) Option {
	return func(c *config) {
		c.prop = prop
	}
}

// WithMaxBodySize limits the request body FunctionHandler accepts.
// Non-positive values keep DefaultMaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

func newConfig(opts []Option) config {
	c := config{maxBodySize: DefaultMaxBodySize}
	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// otelOptions converts c to otelhttp options, falling back to globals.
func (c config) otelOptions() []otelhttp.Option {
	tp := c.tp
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := c.mp
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	prop := c.prop
	if prop == nil {
		prop = otel.GetTextMapPropagator()
	}

	return []otelhttp.Option{
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithMeterProvider(mp),
		otelhttp.WithPropagators(prop),
	}
}
