// Package tracker holds the process-wide tracer and span namer installed by
// fntrace.InitTracing. Components fall back to it when no tracer provider is
// passed explicitly.
package tracker

import (
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
)

// Namer determines how span names are formatted.
type Namer interface {
	Name(operation, destination string) string
}

type state struct {
	tracer trace.Tracer
	namer  Namer
}

var global atomic.Pointer[state]

func init() {
	global.Store(&state{})
}

// Set updates the global tracing state. Either argument may be nil.
func Set(t trace.Tracer, n Namer) {
	global.Store(&state{tracer: t, namer: n})
}

// Reset clears the global tracing state.
func Reset() {
	global.Store(&state{})
}

// Tracer returns the configured global tracer, or nil if not set.
func Tracer() trace.Tracer {
	return global.Load().tracer
}

// CurrentNamer returns the configured global namer, or nil if not set.
func CurrentNamer() Namer {
	return global.Load().namer
}
