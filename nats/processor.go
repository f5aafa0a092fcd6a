package nats

import (
	"context"
	"fmt"

	"github.com/arloliu/fntrace"
	"github.com/arloliu/fntrace/message"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
)

// Publisher publishes NATS messages to JetStream.
// jetstream.JetStream satisfies it.
type Publisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NewProcessor returns a JetStream handler that runs fn through w for every
// consumed message.
//
// The result is published to the function's output destination (or the
// WithSubject override) carrying the trace headers of the producer span. Its
// Nats-Msg-Id is derived from functionID and the inbound stream sequence (or
// the inbound Nats-Msg-Id), so the result of a redelivered message is
// dropped by JetStream as a duplicate within the stream's duplicate window.
// With no destination the result is dropped. The message is ACKed on
// success and NAKed when fn or the publish fails.
//
// Panics if w, fn or pub is nil.
//
// Example:
//
//	w := tel.Wrapper()
//	cons.Consume(nats.NewProcessor(w, "uppercase", fn, js))
func NewProcessor(
	w *fntrace.Wrapper,
	functionID string,
	fn fntrace.Invoker,
	pub Publisher,
	opts ...Option,
) jetstream.MessageHandler {
	if w == nil {
		panic("fntrace/nats: Wrapper must not be nil")
	}
	if fn == nil {
		panic("fntrace/nats: Invoker must not be nil")
	}
	if pub == nil {
		panic("fntrace/nats: Publisher must not be nil")
	}
	o := applyOptions(opts)

	subject := o.subject
	if subject == "" {
		subject = w.Resolver().Output(functionID)
	}

	return func(msg jetstream.Msg) {
		ctx := context.Background()

		meta, _ := msg.Metadata()
		stream := o.stream
		if stream == "" && meta != nil {
			stream = meta.Stream
		}

		out, err := w.Apply(ctx, functionID, FromMsg(msg), fn,
			fntrace.WithTags(invocationTags(stream)),
			fntrace.WithInputTags(inboundTags(msg, meta)),
		)
		if err != nil {
			o.fail(msg, err)
			return
		}

		if subject != "" {
			if _, err := Publish(ctx, pub, subject, out, o.resultID(functionID, msg, meta)); err != nil {
				o.fail(msg, fmt.Errorf("fntrace/nats: publish to %s: %w", subject, err))
				return
			}
		}

		if err := msg.Ack(); err != nil {
			otel.Handle(fmt.Errorf("fntrace/nats: ack: %w", err))
		}
	}
}

func (o options) fail(msg jetstream.Msg, err error) {
	if o.onError != nil {
		o.onError(msg, err)
	}
	if nakErr := msg.Nak(); nakErr != nil {
		otel.Handle(fmt.Errorf("fntrace/nats: nak: %w", nakErr))
	}
}

// Publish sends m to subject. A non-empty id is set as Nats-Msg-Id; JetStream
// drops later messages published with the same id.
func Publish(ctx context.Context, pub Publisher, subject string, m message.Message, id string) (*jetstream.PubAck, error) {
	msg := ToMsg(subject, m)
	if id != "" {
		msg.Header.Set(MsgIDHeader, id)
	}

	return pub.PublishMsg(ctx, msg)
}

// derivedMsgID names the result of msg. The same inbound message always
// yields the same id; a message with neither stream metadata nor an id gets
// a random one.
func derivedMsgID(functionID string, msg jetstream.Msg, meta *jetstream.MsgMetadata) string {
	var key string
	switch {
	case meta != nil && meta.Sequence.Stream > 0:
		key = fmt.Sprintf("%s/%s/%d", functionID, meta.Stream, meta.Sequence.Stream)
	case msg.Headers() != nil && msg.Headers().Get(MsgIDHeader) != "":
		key = functionID + "/id/" + msg.Headers().Get(MsgIDHeader)
	default:
		return uuid.NewString()
	}

	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
