package http

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Middleware returns otelhttp server middleware for routes that are not
// functions, such as health or admin endpoints. Spans are named operation.
//
// FunctionHandler opens its own invocation spans and is not meant to be
// wrapped by it.
//
// Usage:
//
//	mux.Handle("/healthz", http.Middleware("healthz", http.WithTracerProvider(tp))(health))
func Middleware(operation string, opts ...Option) func(http.Handler) http.Handler {
	otelOpts := newConfig(opts).otelOptions()

	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, operation, otelOpts...)
	}
}
