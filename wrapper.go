package fntrace

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/arloliu/fntrace/destination"
	"github.com/arloliu/fntrace/message"
	"github.com/arloliu/fntrace/span"
	"github.com/arloliu/fntrace/tags"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/log"
)

// Wrapper traces function invocations. For each call to Apply it opens a
// consumer span around the function and, on success, a producer span whose
// context is injected into the result headers.
//
// A Wrapper is safe for concurrent use; each invocation owns its spans and
// header maps.
type Wrapper struct {
	handler  *Handler
	resolver destination.Resolver
	enabled  bool
	bagTags  []string
	metrics  *metrics
	log      debugLogger
}

// NewWrapper creates a Wrapper.
func NewWrapper(opts ...Option) *Wrapper {
	o := applyOptions(opts)

	return &Wrapper{
		handler:  newHandler(o),
		resolver: o.resolver,
		enabled:  o.enabled,
		bagTags:  o.bagTags,
		metrics:  newMetrics(o.meterProvider()),
		log:      newDebugLogger(o.loggerProvider()),
	}
}

// Handler returns the handler used to open spans.
func (w *Wrapper) Handler() *Handler {
	return w.handler
}

// Resolver returns the destination resolver.
func (w *Wrapper) Resolver() destination.Resolver {
	return w.resolver
}

// Enabled reports whether invocations are traced.
func (w *Wrapper) Enabled() bool {
	return w.enabled
}

// ApplyOption configures a single invocation.
type ApplyOption func(*applyConfig)

type applyConfig struct {
	tags      map[string]string
	inputTags map[string]string
}

// WithTags adds tags to both spans of the invocation.
func WithTags(t map[string]string) ApplyOption {
	return func(c *applyConfig) {
		maps.Copy(c.tags, t)
	}
}

// WithTag adds a single tag to both spans of the invocation.
func WithTag(key, value string) ApplyOption {
	return func(c *applyConfig) {
		c.tags[key] = value
	}
}

// WithInputTags adds tags to the consumer span only, for facts about the
// inbound message such as its id or size.
func WithInputTags(t map[string]string) ApplyOption {
	return func(c *applyConfig) {
		maps.Copy(c.inputTags, t)
	}
}

// Apply runs fn on in under tracing.
//
// The inbound trace context is read from in's headers and fn receives in
// without them, with ctx carrying the invocation span. An error from fn is
// returned unchanged and no output span is opened. A panic in fn finishes
// the span with an error and is re-raised. On success the result carries
// trace headers for the producer span.
//
// Baggage from ctx and from in's baggage header is available to fn through
// ctx and is written to the result unless fn set a baggage header itself.
func (w *Wrapper) Apply(
	ctx context.Context,
	functionID string,
	in message.Message,
	fn Invoker,
	opts ...ApplyOption,
) (message.Message, error) {
	if !w.enabled {
		return fn.Apply(ctx, in)
	}

	bag := invocationBaggage(ctx, in.Headers)
	if bag.Len() > 0 {
		ctx = baggage.ContextWithBaggage(ctx, bag)
	}

	cfg := applyConfig{tags: baggageTags(bag, w.bagTags), inputTags: map[string]string{}}
	cfg.tags[tags.Function] = functionID
	for _, opt := range opts {
		opt(&cfg)
	}
	spanOpts := []span.Option{span.WithTags(cfg.tags)}

	wrapped := w.handler.WrapInputMessage(in, w.resolver.Input(functionID),
		append(spanOpts, span.WithTags(cfg.inputTags))...)
	ctx = wrapped.ChildSpan.Start(ctx)
	w.log.debug(ctx, "wrapped input message",
		log.String(attrFunction, functionID),
		log.Bool("parent.present", wrapped.Parent.HasContext()),
	)

	start := time.Now()
	result, err := w.invoke(ctx, functionID, wrapped, fn, start)
	w.finish(wrapped.ChildSpan, err)
	if err != nil {
		w.metrics.record(ctx, functionID, OutcomeError, time.Since(start))
		w.log.debug(ctx, "function failed",
			log.String(attrFunction, functionID),
			log.String(tags.Error, err.Error()),
		)

		return message.Message{}, err
	}

	out, outSpan := w.handler.WrapOutputMessage(ctx, result, wrapped.OutputParent(),
		w.resolver.Output(functionID), spanOpts...)
	w.finish(outSpan, nil)
	out = withBaggageHeader(out, bag)
	w.metrics.record(ctx, functionID, OutcomeSuccess, time.Since(start))
	w.log.debug(ctx, "wrapped output message",
		log.String(attrFunction, functionID),
		log.String("output.trace_id", outSpan.Context().TraceIDString()),
		log.String("output.span_id", outSpan.Context().SpanIDString()),
	)

	return out, nil
}

// invoke calls fn, finishing the child span before re-raising a panic.
func (w *Wrapper) invoke(
	ctx context.Context,
	functionID string,
	wrapped WrappedMessage,
	fn Invoker,
	start time.Time,
) (message.Message, error) {
	defer func() {
		if r := recover(); r != nil {
			w.finish(wrapped.ChildSpan, fmt.Errorf("panic: %v", r))
			w.metrics.record(ctx, functionID, OutcomePanic, time.Since(start))
			panic(r)
		}
	}()

	return fn.Apply(ctx, wrapped.Message)
}

func (w *Wrapper) finish(s *span.Span, err error) {
	if ferr := w.handler.AfterMessageHandled(s, err); ferr != nil {
		otel.Handle(fmt.Errorf("fntrace: finish %q: %w", s.Name(), ferr))
	}
}
