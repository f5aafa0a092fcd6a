package span

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"sync"
	"time"

	"github.com/arloliu/fntrace/message"
	"github.com/arloliu/fntrace/tags"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrAlreadyFinished is returned by Finish on a span that already finished.
	ErrAlreadyFinished = errors.New("fntrace/span: span already finished")

	// ErrNotStarted is returned by Finish on a span that was never started.
	ErrNotStarted = errors.New("fntrace/span: span not started")
)

// State is the lifecycle state of a Span.
type State uint8

const (
	Created State = iota
	Started
	FinishedOK
	FinishedError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Started:
		return "started"
	case FinishedOK:
		return "finished_ok"
	case FinishedError:
		return "finished_error"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Finished reports whether s is a terminal state.
func (s State) Finished() bool {
	return s == FinishedOK || s == FinishedError
}

// Lifecycle creates spans backed by an OTel tracer.
type Lifecycle struct {
	tracer trace.Tracer
}

// NewLifecycle returns a Lifecycle using tracer.
// Panics if tracer is nil.
func NewLifecycle(tracer trace.Tracer) *Lifecycle {
	if tracer == nil {
		panic("fntrace/span: tracer must not be nil")
	}

	return &Lifecycle{tracer: tracer}
}

// Option configures a new Span.
type Option func(*Span)

// WithKind sets the OTel span kind. Defaults to internal.
func WithKind(kind trace.SpanKind) Option {
	return func(s *Span) {
		s.kind = kind
	}
}

// WithTags adds tags to the span.
func WithTags(t map[string]string) Option {
	return func(s *Span) {
		maps.Copy(s.tags, t)
	}
}

// WithTag adds a single tag to the span.
func WithTag(key, value string) Option {
	return func(s *Span) {
		s.tags[key] = value
	}
}

// New returns a span in the Created state. When parent carries a context
// the span joins that trace, otherwise it starts a new one.
func (l *Lifecycle) New(name string, parent message.Extraction, opts ...Option) *Span {
	s := &Span{
		tracer: l.tracer,
		name:   name,
		kind:   trace.SpanKindInternal,
		parent: parent,
		tags:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Span is one unit of traced work. It is safe for concurrent use.
type Span struct {
	tracer trace.Tracer
	name   string
	kind   trace.SpanKind
	parent message.Extraction

	mu    sync.Mutex
	state State
	tags  map[string]string
	otel  trace.Span
	tc    message.TraceContext
	start time.Time
	end   time.Time
	err   error
}

// Start moves the span from Created to Started and returns ctx carrying it.
// On a span that is not Created, Start changes nothing and returns ctx with
// the existing OTel span (if any) attached.
//
// Without a parent context the span starts a new trace under the parent's
// sampling flags: a deny yields an unsampled span that is never recorded, an
// accept is passed to the sampler (see SamplingFromContext).
func (s *Span) Start(ctx context.Context) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Created {
		if s.otel != nil {
			return contextWithSpan(ctx, s)
		}

		return ctx
	}

	s.start = time.Now()
	opts := []trace.SpanStartOption{
		trace.WithSpanKind(s.kind),
		trace.WithTimestamp(s.start),
		trace.WithAttributes(tags.Attributes(s.tags)...),
	}

	var parentID trace.SpanID
	switch {
	case s.parent.HasContext():
		ctx = trace.ContextWithRemoteSpanContext(ctx, s.parent.Context.SpanContext())
		parentID = s.parent.Context.SpanID
		_, s.otel = s.tracer.Start(ctx, s.name, opts...)
	case s.parent.Sampled == message.SamplingDeny && !s.parent.Debug:
		s.otel = trace.SpanFromContext(trace.ContextWithSpanContext(ctx, unsampledRoot()))
	default:
		startCtx := ctx
		if s.parent.Sampled != message.SamplingUnset || s.parent.Debug {
			startCtx = context.WithValue(ctx, samplingKey{}, message.SamplingAccept)
		}
		_, s.otel = s.tracer.Start(startCtx, s.name, append(opts, trace.WithNewRoot())...)
	}

	s.tc = message.FromSpanContext(s.otel.SpanContext(), parentID)
	s.tc.Debug = s.parent.Debug || s.parent.Context.Debug
	if s.tc.Debug {
		s.tc.Sampled = message.SamplingAccept
	}
	s.state = Started

	return contextWithSpan(ctx, s)
}

// Tag sets a tag. Tags set after Finish are ignored.
func (s *Span) Tag(key, value string) {
	s.setTag(key, value, attribute.String(key, value))
}

// TagInt sets an integer tag. The OTel attribute is an int; Tags reports
// the decimal string.
func (s *Span) TagInt(key string, value int) {
	s.setTag(key, strconv.Itoa(value), attribute.Int(key, value))
}

func (s *Span) setTag(key, value string, kv attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Finished() {
		return
	}
	s.tags[key] = value
	if s.otel != nil {
		s.otel.SetAttributes(kv)
	}
}

// Finish ends the span. A non-nil err marks it FinishedError: the error is
// tagged, recorded as an exception event and sets the status to Error.
//
// Finish is effective once. Later calls return ErrAlreadyFinished and leave
// the span untouched. Finishing a span that was never started returns
// ErrNotStarted.
func (s *Span) Finish(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Created:
		otel.Handle(fmt.Errorf("%w: %q", ErrNotStarted, s.name))
		return ErrNotStarted
	case FinishedOK, FinishedError:
		return ErrAlreadyFinished
	case Started:
	}

	s.end = time.Now()
	s.state = FinishedOK
	if err != nil {
		s.err = err
		s.state = FinishedError
		s.tags[tags.Error] = err.Error()
		s.tags[tags.ErrorType] = fmt.Sprintf("%T", err)
		s.otel.SetAttributes(
			attribute.String(tags.Error, s.tags[tags.Error]),
			attribute.String(tags.ErrorType, s.tags[tags.ErrorType]),
		)
		s.otel.RecordError(err)
		s.otel.SetStatus(codes.Error, err.Error())
	}
	s.otel.End(trace.WithTimestamp(s.end))

	return nil
}

// Name returns the span name.
func (s *Span) Name() string { return s.name }

// Kind returns the OTel span kind.
func (s *Span) Kind() trace.SpanKind { return s.kind }

// Parent returns the extraction the span was created from.
func (s *Span) Parent() message.Extraction { return s.parent }

// State returns the current lifecycle state.
func (s *Span) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Context returns the span's trace context. It is invalid until Start.
func (s *Span) Context() message.TraceContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tc
}

// Tags returns a copy of the span tags.
func (s *Span) Tags() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return maps.Clone(s.tags)
}

// StartTime returns when the span started, or the zero time.
func (s *Span) StartTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.start
}

// EndTime returns when the span finished, or the zero time.
func (s *Span) EndTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.end
}

// Err returns the error the span finished with.
func (s *Span) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// OTel returns the underlying OTel span, or nil before Start.
func (s *Span) OTel() trace.Span {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.otel
}
