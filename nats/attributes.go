package nats

import (
	"strconv"

	"github.com/arloliu/fntrace/tags"
	"github.com/nats-io/nats.go/jetstream"
)

// Messaging system identifier for NATS.
const messagingSystem = "nats"

// NATS-specific tag keys following OTel messaging semantic conventions.
const (
	tagConsumerGroup = "messaging.consumer.group.name"
	tagNATSStream    = "nats.stream"
	tagNATSSubject   = "nats.subject"
)

// invocationTags returns tags for both spans of an invocation.
func invocationTags(stream string) map[string]string {
	t := map[string]string{tags.MessagingSystem: messagingSystem}
	if stream != "" {
		t[tagNATSStream] = stream
	}

	return t
}

// inboundTags returns tags describing the consumed message.
func inboundTags(msg jetstream.Msg, meta *jetstream.MsgMetadata) map[string]string {
	t := map[string]string{}
	if subject := msg.Subject(); subject != "" {
		t[tagNATSSubject] = subject
	}
	if id := msgID(msg, meta); id != "" {
		t[tags.MessagingMessageID] = id
	}
	if n := len(msg.Data()); n > 0 {
		t[tags.MessagingBodySize] = strconv.Itoa(n)
	}
	if meta != nil && meta.Consumer != "" {
		t[tagConsumerGroup] = meta.Consumer
	}

	return t
}

// msgID returns the publisher-assigned message id, falling back to the
// stream sequence.
func msgID(msg jetstream.Msg, meta *jetstream.MsgMetadata) string {
	if h := msg.Headers(); h != nil {
		if id := h.Get(MsgIDHeader); id != "" {
			return id
		}
	}
	if meta != nil && meta.Sequence.Stream > 0 {
		return strconv.FormatUint(meta.Sequence.Stream, 10)
	}

	return ""
}
