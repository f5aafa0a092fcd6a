package nats

import (
	"github.com/nats-io/nats.go/jetstream"
)

// options holds configuration for a Processor.
type options struct {
	stream  string
	subject string
	msgID   func(jetstream.Msg) string
	onError func(jetstream.Msg, error)
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{}
}

// Option configures a Processor.
type Option func(*options)

// WithStream sets the stream name tagged on spans, overriding the name
// found in message metadata.
func WithStream(stream string) Option {
	return func(o *options) {
		o.stream = stream
	}
}

// WithSubject sets the subject results are published to, overriding the
// function's output destination.
func WithSubject(subject string) Option {
	return func(o *options) {
		o.subject = subject
	}
}

// WithMsgIDFunc sets the Nats-Msg-Id of the result published for an inbound
// message. Returning "" publishes without an id. The default derives the id
// from the inbound message, see NewProcessor.
func WithMsgIDFunc(fn func(msg jetstream.Msg) string) Option {
	return func(o *options) {
		if fn != nil {
			o.msgID = fn
		}
	}
}

// WithErrorHandler sets a callback for invocation and publish errors.
// It runs before the message is NAKed.
func WithErrorHandler(fn func(msg jetstream.Msg, err error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// resultID returns the Nats-Msg-Id for the result of msg.
func (o options) resultID(functionID string, msg jetstream.Msg, meta *jetstream.MsgMetadata) string {
	if o.msgID != nil {
		return o.msgID(msg)
	}

	return derivedMsgID(functionID, msg, meta)
}

// applyOptions applies option functions to the default options.
func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
