package fntrace

import (
	"github.com/arloliu/fntrace/codec"
	"github.com/arloliu/fntrace/destination"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// options holds configuration shared by Handler and Wrapper.
type options struct {
	tp       trace.TracerProvider
	mp       metric.MeterProvider
	lp       log.LoggerProvider
	codec    *codec.Codec
	namer    SpanNamer
	resolver destination.Resolver
	enabled  bool
	bagTags  []string
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		codec:    codec.Default,
		resolver: destination.Nop,
		enabled:  true,
	}
}

// Option configures a Handler or Wrapper.
type Option func(*options)

// WithTracerProvider sets the tracer provider.
// If not set, the tracer from InitTracing or the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tp = tp
	}
}

// WithMeterProvider sets the meter provider for invocation metrics.
// If not set, the global provider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.mp = mp
	}
}

// WithLoggerProvider sets the logger provider for debug logs.
// If not set, the global provider is used.
func WithLoggerProvider(lp log.LoggerProvider) Option {
	return func(o *options) {
		o.lp = lp
	}
}

// WithCodec sets the header codec. Default is codec.Default (B3 + W3C).
func WithCodec(c *codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithSpanNamer sets the span namer.
// If not set, the namer from InitTracing or DefaultNamer is used.
func WithSpanNamer(n SpanNamer) Option {
	return func(o *options) {
		o.namer = n
	}
}

// WithResolver sets the destination resolver. Default resolves to "".
func WithResolver(r destination.Resolver) Option {
	return func(o *options) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithEnabled turns tracing of invocations on or off. A disabled Wrapper
// calls the function directly. Default is true.
func WithEnabled(enabled bool) Option {
	return func(o *options) {
		o.enabled = enabled
	}
}

// WithBaggageTags copies the named baggage members of each invocation onto
// its spans as tags.
func WithBaggageTags(keys ...string) Option {
	return func(o *options) {
		o.bagTags = append(o.bagTags, keys...)
	}
}

// applyOptions applies option functions to the default options.
func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

func (o options) meterProvider() metric.MeterProvider {
	if o.mp != nil {
		return o.mp
	}

	return otel.GetMeterProvider()
}

func (o options) loggerProvider() log.LoggerProvider {
	if o.lp != nil {
		return o.lp
	}

	return global.GetLoggerProvider()
}
