package nats

import (
	"github.com/arloliu/fntrace/message"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// MsgIDHeader is the JetStream de-duplication header.
const MsgIDHeader = nats.MsgIdHdr

// HeadersFromNATS converts NATS headers, keeping the first value of each key.
func HeadersFromNATS(h nats.Header) message.Headers {
	out := make(message.Headers, len(h))
	for k, vals := range h {
		if len(vals) > 0 {
			out[k] = vals[0]
		}
	}

	return out
}

// HeadersToNATS converts message headers to NATS headers.
func HeadersToNATS(h message.Headers) nats.Header {
	out := make(nats.Header, len(h))
	for k, v := range h {
		out.Set(k, v)
	}

	return out
}

// FromMsg converts a JetStream message. The payload is copied.
func FromMsg(msg jetstream.Msg) message.Message {
	return message.New(msg.Data(), HeadersFromNATS(msg.Headers()))
}

// ToMsg builds a NATS message for subject from m.
func ToMsg(subject string, m message.Message) *nats.Msg {
	return &nats.Msg{
		Subject: subject,
		Data:    m.Payload,
		Header:  HeadersToNATS(m.Headers),
	}
}
