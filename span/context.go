package span

import (
	"context"

	"github.com/arloliu/fntrace/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

type spanKey struct{}

type samplingKey struct{}

// contextWithSpan returns ctx carrying both s and its OTel span.
func contextWithSpan(ctx context.Context, s *Span) context.Context {
	return context.WithValue(trace.ContextWithSpan(ctx, s.otel), spanKey{}, s)
}

// FromContext returns the span started into ctx, or nil.
func FromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanKey{}).(*Span)

	return s
}

// SamplingFromContext returns the decision an upstream sent with sampling
// flags but no trace context. It is set only on the context a new root is
// started from, so a sampler can keep such traces whatever its own root
// policy; it is SamplingUnset everywhere else.
func SamplingFromContext(ctx context.Context) message.SamplingFlag {
	f, _ := ctx.Value(samplingKey{}).(message.SamplingFlag)

	return f
}

// unsampledRoot mints ids for a new trace that is not sampled.
func unsampledRoot() trace.SpanContext {
	tid, sid := uuid.New(), uuid.New()

	var spanID trace.SpanID
	copy(spanID[:], sid[:8])

	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID(tid),
		SpanID:  spanID,
	})
}
