package grpc

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type config struct {
	tp   trace.TracerProvider
	mp   metric.MeterProvider
	prop propagation.TextMapPropagator
}

// Option configures the stats handlers.
type Option func(*config)

// WithTracerProvider sets the TracerProvider. Default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		c.tp = tp
	}
}

// WithMeterProvider sets the MeterProvider. Default is the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) {
		c.mp = mp
	}
}

// WithPropagator sets the propagator. Default is the global propagator.
func WithPropagator(prop propagation.TextMapPropagator) Option {
	return func(c *config) {
		c.prop = prop
	}
}

// otelOptions builds otelgrpc options, falling back to globals for unset
// providers.
func otelOptions(opts []Option) []otelgrpc.Option {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	if c.tp == nil {
		c.tp = otel.GetTracerProvider()
	}
	if c.mp == nil {
		c.mp = otel.GetMeterProvider()
	}
	if c.prop == nil {
		c.prop = otel.GetTextMapPropagator()
	}

	return []otelgrpc.Option{
		otelgrpc.WithTracerProvider(c.tp),
		otelgrpc.WithMeterProvider(c.mp),
		otelgrpc.WithPropagators(c.prop),
	}
}
