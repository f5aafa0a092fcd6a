package fntrace

import (
	"context"

	"github.com/arloliu/fntrace/codec"
	"github.com/arloliu/fntrace/message"
	"github.com/arloliu/fntrace/span"
	"github.com/arloliu/fntrace/tags"
	"go.opentelemetry.io/otel/trace"
)

// WrappedMessage is an inbound message prepared for invocation.
type WrappedMessage struct {
	// Message is the inbound message with trace headers removed.
	Message message.Message
	// ChildSpan is the span covering the invocation, in the Created state.
	ChildSpan *span.Span
	// Parent is what was extracted from the inbound headers.
	Parent message.Extraction
}

// OutputParent returns the parent of the outbound span: the inbound context
// when there was one, otherwise the context of the started child span so the
// outbound message stays in the invocation's trace.
func (w WrappedMessage) OutputParent() message.Extraction {
	if w.Parent.HasContext() {
		return w.Parent
	}

	return message.FromContext(w.ChildSpan.Context())
}

// Handler opens the spans around one function invocation: a consumer span for
// the inbound message and a producer span for the outbound one.
type Handler struct {
	lc    *span.Lifecycle
	codec *codec.Codec
	namer SpanNamer
}

// NewHandler creates a Handler. Only WithTracerProvider, WithCodec and
// WithSpanNamer apply.
func NewHandler(opts ...Option) *Handler {
	return newHandler(applyOptions(opts))
}

func newHandler(o options) *Handler {
	return &Handler{
		lc:    span.NewLifecycle(getTracer(o.tp)),
		codec: o.codec,
		namer: resolveNamer(o.namer),
	}
}

// Codec returns the header codec.
func (h *Handler) Codec() *codec.Codec {
	return h.codec
}

// WrapInputMessage extracts the trace context from msg and creates the child
// span for its invocation. The returned message has no trace headers.
func (h *Handler) WrapInputMessage(msg message.Message, destination string, opts ...span.Option) WrappedMessage {
	parent := h.codec.Extract(msg.Headers)

	base := []span.Option{
		span.WithKind(trace.SpanKindConsumer),
		span.WithTag(tags.MessagingOperationType, tags.OperationProcess),
	}
	if destination != "" {
		base = append(base, span.WithTag(tags.MessagingDestination, destination))
	}

	return WrappedMessage{
		Message:   msg.WithHeaders(h.codec.Strip(msg.Headers)),
		ChildSpan: h.lc.New(h.namer.Name(OperationHandle, destination), parent, append(base, opts...)...),
		Parent:    parent,
	}
}

// AfterMessageHandled finishes s, tagging err when non-nil.
// It returns the result of s.Finish, so a second call reports
// span.ErrAlreadyFinished.
func (h *Handler) AfterMessageHandled(s *span.Span, err error) error {
	if s == nil {
		return nil
	}

	return s.Finish(err)
}

// WrapOutputMessage starts a producer span as a child of parent and injects
// its context into a copy of result's headers, replacing any trace headers
// already there. The caller finishes the returned span.
//
// With a non-recording tracer and no parent the span has no valid context;
// the result then carries no trace headers at all.
func (h *Handler) WrapOutputMessage(
	ctx context.Context,
	result message.Message,
	parent message.Extraction,
	destination string,
	opts ...span.Option,
) (message.Message, *span.Span) {
	base := []span.Option{
		span.WithKind(trace.SpanKindProducer),
		span.WithTag(tags.MessagingOperationType, tags.OperationSend),
	}
	if destination != "" {
		base = append(base, span.WithTag(tags.MessagingDestination, destination))
	}

	s := h.lc.New(h.namer.Name(OperationSend, destination), parent, append(base, opts...)...)
	s.Start(ctx)

	return result.WithHeaders(h.codec.Inject(s.Context(), result.Headers)), s
}
