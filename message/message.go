package message

import "bytes"

// Message is a payload with headers.
type Message struct {
	Payload []byte
	Headers Headers
}

// New creates a Message owning copies of payload and headers.
func New(payload []byte, headers Headers) Message {
	return Message{
		Payload: bytes.Clone(payload),
		Headers: headers.Clone(),
	}
}

// Header returns the value of a header, or "" when absent.
func (m Message) Header(key string) string {
	return m.Headers.Get(key)
}

// WithHeaders returns a copy of m carrying h instead of its own headers.
func (m Message) WithHeaders(h Headers) Message {
	return Message{Payload: m.Payload, Headers: h.Clone()}
}

// WithPayload returns a copy of m carrying p, keeping m's headers.
func (m Message) WithPayload(p []byte) Message {
	return Message{Payload: p, Headers: m.Headers.Clone()}
}
