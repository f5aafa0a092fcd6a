package fntrace

import (
	"context"

	"github.com/arloliu/fntrace/message"
)

// Invoker is a function-like handler: it consumes one message and produces
// one result. ctx carries the span of the invocation.
type Invoker interface {
	Apply(ctx context.Context, in message.Message) (message.Message, error)
}

// MessageFunc adapts a function on whole messages to Invoker.
type MessageFunc func(ctx context.Context, in message.Message) (message.Message, error)

// Apply calls f.
func (f MessageFunc) Apply(ctx context.Context, in message.Message) (message.Message, error) {
	return f(ctx, in)
}

// PayloadFunc adapts a function on raw payloads to Invoker. The result is
// wrapped into a fresh message with no headers.
type PayloadFunc func(ctx context.Context, payload []byte) ([]byte, error)

// Apply calls f with the payload of in.
func (f PayloadFunc) Apply(ctx context.Context, in message.Message) (message.Message, error) {
	out, err := f(ctx, in.Payload)
	if err != nil {
		return message.Message{}, err
	}

	return message.New(out, nil), nil
}
