package codec

import (
	"github.com/arloliu/fntrace/message"
	"go.opentelemetry.io/otel/propagation"
)

// headerCarrier adapts message.Headers to propagation.TextMapCarrier.
type headerCarrier message.Headers

// Carrier returns a TextMapCarrier reading and writing h.
// Set mutates h, so h must be owned by the caller and non-nil.
func Carrier(h message.Headers) propagation.TextMapCarrier {
	return headerCarrier(h)
}

// Get returns the value for key, matched case-insensitively.
func (c headerCarrier) Get(key string) string {
	return message.Headers(c).Get(key)
}

// Set stores the key-value pair, replacing case variants of key.
func (c headerCarrier) Set(key, value string) {
	message.Headers(c).Set(key, value)
}

// Keys returns all header keys.
func (c headerCarrier) Keys() []string {
	return message.Headers(c).Keys()
}
