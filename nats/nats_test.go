package nats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arloliu/fntrace"
	"github.com/arloliu/fntrace/codec"
	"github.com/arloliu/fntrace/destination"
	"github.com/arloliu/fntrace/message"
	"github.com/arloliu/fntrace/tags"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// mockMsg implements jetstream.Msg and records acknowledgements.
type mockMsg struct {
	subject  string
	data     []byte
	headers  nats.Header
	metadata *jetstream.MsgMetadata

	mu    sync.Mutex
	acked int
	naked int
}

func (m *mockMsg) Subject() string                          { return m.subject }
func (m *mockMsg) Data() []byte                             { return m.data }
func (m *mockMsg) Headers() nats.Header                     { return m.headers }
func (*mockMsg) Reply() string                              { return "" }
func (*mockMsg) DoubleAck(_ context.Context) error          { return nil }
func (*mockMsg) NakWithDelay(_ time.Duration) error         { return nil }
func (*mockMsg) Term() error                                { return nil }
func (*mockMsg) TermWithReason(_ string) error              { return nil }
func (*mockMsg) InProgress() error                          { return nil }
func (m *mockMsg) Metadata() (*jetstream.MsgMetadata, error) { return m.metadata, nil }

func (m *mockMsg) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked++

	return nil
}

func (m *mockMsg) Nak() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.naked++

	return nil
}

// mockPublisher records published messages.
type mockPublisher struct {
	mu   sync.Mutex
	msgs []*nats.Msg
	err  error
}

func (p *mockPublisher) PublishMsg(_ context.Context, msg *nats.Msg, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.msgs = append(p.msgs, msg)

	return &jetstream.PubAck{Stream: "OUT", Sequence: uint64(len(p.msgs))}, nil
}

func (p *mockPublisher) published() []*nats.Msg {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]*nats.Msg(nil), p.msgs...)
}

var upper = fntrace.PayloadFunc(func(_ context.Context, p []byte) ([]byte, error) {
	out := make([]byte, len(p))
	for i, c := range p {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}

	return out, nil
})

func newTestWrapper(t *testing.T) (*fntrace.Wrapper, *tracetest.InMemoryExporter) {
	t.Helper()

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	w := fntrace.NewWrapper(
		fntrace.WithTracerProvider(tp),
		fntrace.WithResolver(destination.Bindings{
			"uppercase": {Input: "words", Output: "shouts"},
		}),
	)

	return w, exp
}

func inboundMsg() *mockMsg {
	return &mockMsg{
		subject: "words",
		data:    []byte("hello"),
		headers: nats.Header{
			codec.TraceIDHeader: []string{"abc"},
			codec.SpanIDHeader:  []string{"1"},
			MsgIDHeader:         []string{"msg-1"},
		},
		metadata: &jetstream.MsgMetadata{
			Stream:   "WORDS",
			Consumer: "uppercase",
			Sequence: jetstream.SequencePair{Stream: 7, Consumer: 1},
		},
	}
}

func attrs(kvs []attribute.KeyValue) map[string]string {
	m := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value.Emit()
	}

	return m
}

func spanOfKind(t *testing.T, spans tracetest.SpanStubs, kind trace.SpanKind) tracetest.SpanStub {
	t.Helper()

	for _, s := range spans {
		if s.SpanKind == kind {
			return s
		}
	}
	require.Failf(t, "span not found", "no %s span", kind)

	return tracetest.SpanStub{}
}

func TestProcessor_ContinuesTrace(t *testing.T) {
	w, exp := newTestWrapper(t)
	pub := &mockPublisher{}
	msg := inboundMsg()

	handle := NewProcessor(w, "uppercase", upper, pub, WithMsgIDFunc(func(jetstream.Msg) string { return "out-1" }))
	handle(msg)

	assert.Equal(t, 1, msg.acked)
	assert.Equal(t, 0, msg.naked)

	out := pub.published()
	require.Len(t, out, 1)
	assert.Equal(t, "shouts", out[0].Subject)
	assert.Equal(t, "HELLO", string(out[0].Data))
	assert.Equal(t, "out-1", out[0].Header.Get(MsgIDHeader))
	assert.Equal(t, "0000000000000abc", out[0].Header.Get(codec.TraceIDHeader))

	spans := exp.GetSpans()
	require.Len(t, spans, 2)
	consumer := spanOfKind(t, spans, trace.SpanKindConsumer)
	producer := spanOfKind(t, spans, trace.SpanKindProducer)

	assert.Equal(t, consumer.SpanContext.TraceID(), producer.SpanContext.TraceID())
	assert.Equal(t, producer.SpanContext.SpanID().String(), out[0].Header.Get(codec.SpanIDHeader))

	ca := attrs(consumer.Attributes)
	assert.Equal(t, "nats", ca[tags.MessagingSystem])
	assert.Equal(t, "WORDS", ca[tagNATSStream])
	assert.Equal(t, "words", ca[tagNATSSubject])
	assert.Equal(t, "msg-1", ca[tags.MessagingMessageID])
	assert.Equal(t, "5", ca[tags.MessagingBodySize])
	assert.Equal(t, "uppercase", ca[tagConsumerGroup])

	pa := attrs(producer.Attributes)
	assert.Equal(t, "nats", pa[tags.MessagingSystem])
	assert.NotContains(t, pa, tagNATSSubject)
}

func TestProcessor_FunctionErrorNaks(t *testing.T) {
	w, exp := newTestWrapper(t)
	pub := &mockPublisher{}
	msg := inboundMsg()
	boom := errors.New("X")

	var got error
	fail := fntrace.PayloadFunc(func(context.Context, []byte) ([]byte, error) { return nil, boom })
	handle := NewProcessor(w, "uppercase", fail, pub,
		WithErrorHandler(func(_ jetstream.Msg, err error) { got = err }))
	handle(msg)

	assert.Equal(t, 0, msg.acked)
	assert.Equal(t, 1, msg.naked)
	assert.Empty(t, pub.published())
	require.ErrorIs(t, got, boom)

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "X", attrs(spans[0].Attributes)[tags.Error])
}

func TestProcessor_PublishErrorNaks(t *testing.T) {
	w, _ := newTestWrapper(t)
	pubErr := errors.New("no responders")
	pub := &mockPublisher{err: pubErr}
	msg := inboundMsg()

	var got error
	handle := NewProcessor(w, "uppercase", upper, pub,
		WithErrorHandler(func(_ jetstream.Msg, err error) { got = err }))
	handle(msg)

	assert.Equal(t, 1, msg.naked)
	assert.Equal(t, 0, msg.acked)
	require.ErrorIs(t, got, pubErr)
	assert.Contains(t, got.Error(), "shouts")
}

func TestProcessor_NoOutputDestination(t *testing.T) {
	w, exp := newTestWrapper(t)
	pub := &mockPublisher{}
	msg := inboundMsg()

	handle := NewProcessor(w, "sink", upper, pub)
	handle(msg)

	assert.Equal(t, 1, msg.acked)
	assert.Empty(t, pub.published())
	assert.Len(t, exp.GetSpans(), 2)
}

func TestProcessor_SubjectAndStreamOverride(t *testing.T) {
	w, exp := newTestWrapper(t)
	pub := &mockPublisher{}
	msg := inboundMsg()
	msg.metadata = nil

	handle := NewProcessor(w, "uppercase", upper, pub,
		WithSubject("elsewhere"), WithStream("CUSTOM"))
	handle(msg)

	out := pub.published()
	require.Len(t, out, 1)
	assert.Equal(t, "elsewhere", out[0].Subject)
	assert.NotEmpty(t, out[0].Header.Get(MsgIDHeader))

	consumer := spanOfKind(t, exp.GetSpans(), trace.SpanKindConsumer)
	assert.Equal(t, "CUSTOM", attrs(consumer.Attributes)[tagNATSStream])
}

func TestProcessor_NewTraceWithoutHeaders(t *testing.T) {
	w, exp := newTestWrapper(t)
	pub := &mockPublisher{}
	msg := &mockMsg{subject: "words", data: []byte("hi")}

	NewProcessor(w, "uppercase", upper, pub)(msg)

	out := pub.published()
	require.Len(t, out, 1)
	consumer := spanOfKind(t, exp.GetSpans(), trace.SpanKindConsumer)
	assert.False(t, consumer.Parent.IsValid())
	assert.Equal(t, consumer.SpanContext.TraceID().String(), out[0].Header.Get(codec.TraceIDHeader))
}

func TestNewProcessor_PanicsOnNil(t *testing.T) {
	w, _ := newTestWrapper(t)
	pub := &mockPublisher{}

	assert.PanicsWithValue(t, "fntrace/nats: Wrapper must not be nil", func() {
		NewProcessor(nil, "f", upper, pub)
	})
	assert.PanicsWithValue(t, "fntrace/nats: Invoker must not be nil", func() {
		NewProcessor(w, "f", nil, pub)
	})
	assert.PanicsWithValue(t, "fntrace/nats: Publisher must not be nil", func() {
		NewProcessor(w, "f", upper, nil)
	})
}

func TestConvert_Headers(t *testing.T) {
	h := nats.Header{}
	h.Add("A", "1")
	h.Add("A", "2")
	h.Set("B", "x")

	got := HeadersFromNATS(h)
	assert.Equal(t, message.Headers{"A": "1", "B": "x"}, got)

	back := HeadersToNATS(got)
	assert.Equal(t, "1", back.Get("A"))
	assert.Equal(t, "x", back.Get("B"))
}

func TestFromMsg_CopiesPayload(t *testing.T) {
	msg := &mockMsg{data: []byte("abc"), headers: nats.Header{"K": []string{"v"}}}

	m := FromMsg(msg)
	msg.data[0] = 'z'

	assert.Equal(t, "abc", string(m.Payload))
	assert.Equal(t, "v", m.Header("K"))
}

func TestPublish_WithoutID(t *testing.T) {
	pub := &mockPublisher{}

	ack, err := Publish(context.Background(), pub, "s", message.New([]byte("p"), nil), "")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ack.Sequence)

	out := pub.published()
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Header.Get(MsgIDHeader))
}

func TestInboundTags_SequenceFallback(t *testing.T) {
	msg := &mockMsg{subject: "s"}
	meta := &jetstream.MsgMetadata{Sequence: jetstream.SequencePair{Stream: 42}}

	got := inboundTags(msg, meta)
	assert.Equal(t, "42", got[tags.MessagingMessageID])
	assert.NotContains(t, got, tags.MessagingBodySize)
}

func TestProcessor_ResultIDStableAcrossRedelivery(t *testing.T) {
	w, _ := newTestWrapper(t)
	pub := &mockPublisher{}
	handle := NewProcessor(w, "uppercase", upper, pub)

	first := inboundMsg()
	redelivered := inboundMsg()
	redelivered.metadata.NumDelivered = 2
	next := inboundMsg()
	next.metadata.Sequence.Stream = 8
	handle(first)
	handle(redelivered)
	handle(next)

	out := pub.published()
	require.Len(t, out, 3)
	id := out[0].Header.Get(MsgIDHeader)
	assert.NotEmpty(t, id)
	assert.NotEqual(t, "msg-1", id, "result id differs from the inbound id")
	assert.Equal(t, id, out[1].Header.Get(MsgIDHeader))
	assert.NotEqual(t, id, out[2].Header.Get(MsgIDHeader))

	other := NewProcessor(w, "lowercase", upper, pub, WithSubject("shouts"))
	other(inboundMsg())
	assert.NotEqual(t, id, pub.published()[3].Header.Get(MsgIDHeader), "ids are per function")
}

func TestDerivedMsgID_Fallbacks(t *testing.T) {
	withID := func(id string) *mockMsg {
		m := inboundMsg()
		m.metadata = nil
		m.headers = nats.Header{MsgIDHeader: []string{id}}

		return m
	}
	assert.Equal(t, derivedMsgID("fn", withID("a"), nil), derivedMsgID("fn", withID("a"), nil))
	assert.NotEqual(t, derivedMsgID("fn", withID("a"), nil), derivedMsgID("fn", withID("b"), nil))

	bare := &mockMsg{subject: "words"}
	a, b := derivedMsgID("fn", bare, nil), derivedMsgID("fn", bare, nil)
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b, "no identity to derive from")
}
