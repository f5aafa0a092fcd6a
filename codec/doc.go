// Package codec reads and writes trace context in message headers.
//
// The wire format is B3 multi-header propagation, as used by Zipkin and
// Brave:
//
//	X-B3-TraceId:      1-32 hex characters
//	X-B3-SpanId:       1-16 hex characters
//	X-B3-ParentSpanId: 1-16 hex characters, optional
//	X-B3-Sampled:      "1", "0" (or "true", "false", "d" for debug)
//	X-B3-Flags:        "1" for debug
//
// Missing keys mean "no context". Malformed values are treated as missing:
// extraction never fails, it degrades to sampling flags only so the caller
// starts a new trace.
//
// A [Codec] can additionally read and write an OTel TextMapPropagator
// (W3C traceparent by default) so messages cross into OTel-native services.
// B3 wins when both are present.
package codec
