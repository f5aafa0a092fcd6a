package codec

import (
	"context"
	"strings"

	"github.com/arloliu/fntrace/message"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// B3 multi-header keys.
const (
	TraceIDHeader      = "X-B3-TraceId"
	SpanIDHeader       = "X-B3-SpanId"
	ParentSpanIDHeader = "X-B3-ParentSpanId"
	SampledHeader      = "X-B3-Sampled"
	FlagsHeader        = "X-B3-Flags"
)

var b3Keys = []string{TraceIDHeader, SpanIDHeader, ParentSpanIDHeader, SampledHeader, FlagsHeader}

// Codec extracts and injects trace context over message headers.
// A Codec is immutable and safe for concurrent use.
type Codec struct {
	prop propagation.TextMapPropagator
}

// Option configures a Codec.
type Option func(*Codec)

// WithPropagator adds a secondary OTel propagator.
// Its fields are read when no B3 context is present and written alongside B3.
func WithPropagator(prop propagation.TextMapPropagator) Option {
	return func(c *Codec) {
		c.prop = prop
	}
}

// New creates a Codec. Without options it speaks B3 only.
func New(opts ...Option) *Codec {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Default speaks B3 and W3C TraceContext.
var Default = New(WithPropagator(propagation.TraceContext{}))

var b3Only = New()

// Extract reads B3 headers. See [Codec.Extract].
func Extract(h message.Headers) message.Extraction { return b3Only.Extract(h) }

// Inject writes B3 headers. See [Codec.Inject].
func Inject(tc message.TraceContext, h message.Headers) message.Headers {
	return b3Only.Inject(tc, h)
}

// Strip removes B3 headers. See [Codec.Strip].
func Strip(h message.Headers) message.Headers { return b3Only.Strip(h) }

// Keys returns every header key the codec reads or writes.
func (c *Codec) Keys() []string {
	keys := append([]string(nil), b3Keys...)
	if c.prop != nil {
		keys = append(keys, c.prop.Fields()...)
	}

	return keys
}

// Extract reads the trace context from h.
// It never fails: absent or unparsable values yield an Extraction without
// context, carrying only the sampling flags that could be read.
func (c *Codec) Extract(h message.Headers) message.Extraction {
	ext := extractB3(h)
	if ext.HasContext() || c.prop == nil {
		return ext
	}

	sc := trace.SpanContextFromContext(c.prop.Extract(context.Background(), Carrier(h)))
	if !sc.IsValid() {
		return ext
	}

	return message.FromContext(message.FromSpanContext(sc, trace.SpanID{}))
}

// Inject returns a copy of h carrying tc. Trace keys already in h are
// removed first so no stale context survives; other headers are kept.
// An invalid tc yields h without trace keys. A debug context is written as
// "X-B3-Flags: 1" in place of X-B3-Sampled.
func (c *Codec) Inject(tc message.TraceContext, h message.Headers) message.Headers {
	out := c.Strip(h)
	if !tc.IsValid() {
		return out
	}

	if c.prop != nil {
		ctx := trace.ContextWithSpanContext(context.Background(), tc.SpanContext())
		c.prop.Inject(ctx, Carrier(out))
	}

	// Written last: a B3-capable secondary propagator must not override the
	// parent id or the short trace id form.
	out.Set(TraceIDHeader, tc.TraceIDString())
	out.Set(SpanIDHeader, tc.SpanIDString())
	if tc.HasParent() {
		out.Set(ParentSpanIDHeader, tc.ParentSpanIDString())
	}
	switch {
	case tc.Debug:
		out.Set(FlagsHeader, "1")
	case tc.Sampled == message.SamplingAccept:
		out.Set(SampledHeader, "1")
	case tc.Sampled == message.SamplingDeny:
		out.Set(SampledHeader, "0")
	}

	return out
}

// Strip returns a copy of h without any trace keys.
func (c *Codec) Strip(h message.Headers) message.Headers {
	return h.Without(c.Keys()...)
}

func extractB3(h message.Headers) message.Extraction {
	var ext message.Extraction

	switch strings.ToLower(strings.TrimSpace(h.Get(SampledHeader))) {
	case "1", "true":
		ext.Sampled = message.SamplingAccept
	case "0", "false":
		ext.Sampled = message.SamplingDeny
	case "d":
		ext.Sampled = message.SamplingAccept
		ext.Debug = true
	}
	if strings.TrimSpace(h.Get(FlagsHeader)) == "1" {
		ext.Sampled = message.SamplingAccept
		ext.Debug = true
	}

	traceID, ok := parseTraceID(h.Get(TraceIDHeader))
	if !ok {
		return ext
	}
	spanID, ok := parseSpanID(h.Get(SpanIDHeader))
	if !ok {
		return ext
	}

	ext.Context = message.TraceContext{
		TraceID: traceID,
		SpanID:  spanID,
		Sampled: ext.Sampled,
		Debug:   ext.Debug,
	}
	if parent, ok := parseSpanID(h.Get(ParentSpanIDHeader)); ok {
		ext.Context.ParentSpanID = parent
	}

	return ext
}

// parseTraceID accepts 1-32 hex characters, left-padded to 128 bits.
// An all-zero id is invalid.
func parseTraceID(s string) (trace.TraceID, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || len(s) > 32 {
		return trace.TraceID{}, false
	}

	id, err := trace.TraceIDFromHex(strings.Repeat("0", 32-len(s)) + s)
	if err != nil {
		return trace.TraceID{}, false
	}

	return id, true
}

// parseSpanID accepts 1-16 hex characters, left-padded to 64 bits.
// An all-zero id is invalid.
func parseSpanID(s string) (trace.SpanID, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || len(s) > 16 {
		return trace.SpanID{}, false
	}

	id, err := trace.SpanIDFromHex(strings.Repeat("0", 16-len(s)) + s)
	if err != nil {
		return trace.SpanID{}, false
	}

	return id, true
}
