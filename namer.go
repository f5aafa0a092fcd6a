package fntrace

import "github.com/arloliu/fntrace/internal/tracker"

// Span operation names used by Handler.
const (
	OperationHandle = "handle"
	OperationSend   = "send"
)

// SpanNamer builds span names from an operation and the destination the
// operation reads from or writes to. The destination may be empty.
type SpanNamer interface {
	Name(operation, destination string) string
}

// DefaultNamer returns the operation unchanged: "handle" and "send".
type DefaultNamer struct{}

// Name returns operation.
func (DefaultNamer) Name(operation, _ string) string {
	return operation
}

// MessagingNamer follows the OTel messaging convention "operation destination",
// e.g. "send orders". It falls back to the bare operation without destination.
type MessagingNamer struct{}

// Name returns "operation destination".
func (MessagingNamer) Name(operation, destination string) string {
	if destination == "" {
		return operation
	}

	return NameMessaging(operation, destination)
}

// NameHTTP returns a span name for an HTTP request: "METHOD /route".
// Example: "POST /uppercase"
func NameHTTP(method, route string) string {
	return method + " " + route
}

// NameMessaging returns a span name for a messaging operation: "verb destination".
// Example: "send orders"
func NameMessaging(verb, destination string) string {
	return verb + " " + destination
}

// resolveNamer picks the explicit namer, then the global one, then DefaultNamer.
func resolveNamer(n SpanNamer) SpanNamer {
	if n != nil {
		return n
	}
	if g := tracker.CurrentNamer(); g != nil {
		return g
	}

	return DefaultNamer{}
}
