package message

import (
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// SamplingFlag is a tri-state sampling decision.
type SamplingFlag uint8

const (
	// SamplingUnset defers the decision to the local sampler.
	SamplingUnset SamplingFlag = iota
	// SamplingAccept marks the trace as sampled.
	SamplingAccept
	// SamplingDeny marks the trace as not sampled.
	SamplingDeny
)

// String returns the flag name.
func (f SamplingFlag) String() string {
	switch f {
	case SamplingAccept:
		return "accept"
	case SamplingDeny:
		return "deny"
	default:
		return "unset"
	}
}

// highZeros is the rendering of the upper 64 bits of a 64-bit B3 trace id.
const highZeros = "0000000000000000"

// TraceContext identifies a span within a trace.
// A zero ParentSpanID means the span has no parent. Debug implies sampled.
type TraceContext struct {
	TraceID      trace.TraceID
	SpanID       trace.SpanID
	ParentSpanID trace.SpanID
	Sampled      SamplingFlag
	Debug        bool
}

// IsValid reports whether both trace and span ids are set.
func (c TraceContext) IsValid() bool {
	return c.TraceID.IsValid() && c.SpanID.IsValid()
}

// HasParent reports whether a parent span id is set.
func (c TraceContext) HasParent() bool {
	return c.ParentSpanID.IsValid()
}

// TraceIDString renders the trace id the way B3 peers expect:
// 16 hex characters for 64-bit ids, 32 for 128-bit ids.
func (c TraceContext) TraceIDString() string {
	s := c.TraceID.String()
	if rest, ok := strings.CutPrefix(s, highZeros); ok {
		return rest
	}

	return s
}

// SpanIDString renders the span id as 16 hex characters.
func (c TraceContext) SpanIDString() string {
	return c.SpanID.String()
}

// ParentSpanIDString renders the parent span id, or "" when absent.
func (c TraceContext) ParentSpanIDString() string {
	if !c.HasParent() {
		return ""
	}

	return c.ParentSpanID.String()
}

// SpanContext converts c into a remote OTel span context.
// An unset sampling decision is mapped to sampled so parent-based samplers
// keep traces whose upstream did not decide.
func (c TraceContext) SpanContext() trace.SpanContext {
	var flags trace.TraceFlags
	if c.Debug || c.Sampled != SamplingDeny {
		flags = trace.FlagsSampled
	}

	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    c.TraceID,
		SpanID:     c.SpanID,
		TraceFlags: flags,
		Remote:     true,
	})
}

// FromSpanContext builds a TraceContext from an OTel span context and the
// id of its parent (zero when it is a root).
func FromSpanContext(sc trace.SpanContext, parent trace.SpanID) TraceContext {
	sampled := SamplingDeny
	if sc.IsSampled() {
		sampled = SamplingAccept
	}

	return TraceContext{
		TraceID:      sc.TraceID(),
		SpanID:       sc.SpanID(),
		ParentSpanID: parent,
		Sampled:      sampled,
	}
}

// Extraction is the result of reading trace headers: either a full context,
// or only sampling flags when no usable context was present.
type Extraction struct {
	Context TraceContext
	Sampled SamplingFlag
	Debug   bool
}

// HasContext reports whether a valid trace context was extracted.
// When false, a new trace should be started.
func (e Extraction) HasContext() bool {
	return e.Context.IsValid()
}

// FromContext wraps a trace context as an Extraction.
func FromContext(c TraceContext) Extraction {
	return Extraction{Context: c, Sampled: c.Sampled, Debug: c.Debug}
}

// Empty reports whether the extraction carries nothing at all: no context,
// no sampling decision and no debug flag.
func (e Extraction) Empty() bool {
	return !e.HasContext() && e.Sampled == SamplingUnset && !e.Debug
}
