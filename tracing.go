package fntrace

import (
	"context"

	"github.com/arloliu/fntrace/internal/tracker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/arloliu/fntrace"

// InitTracing sets the global tracer and namer used by handlers and wrappers
// created without WithTracerProvider or WithSpanNamer.
// Called once during application initialization.
func InitTracing(tracer trace.Tracer, namer SpanNamer) {
	tracker.Set(tracer, namer)
}

// TraceID returns the trace ID from context, or empty string if none.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return ""
}

// SpanID returns the span ID from context, or empty string if none.
func SpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasSpanID() {
		return sc.SpanID().String()
	}

	return ""
}

// getTracer returns a tracer from tp, the global tracer set by InitTracing,
// or the global provider, in that order.
func getTracer(tp trace.TracerProvider) trace.Tracer {
	if tp != nil {
		return tp.Tracer(instrumentationName)
	}
	if t := tracker.Tracer(); t != nil {
		return t
	}

	return otel.GetTracerProvider().Tracer(instrumentationName)
}
