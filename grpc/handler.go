package grpc

import (
	"google.golang.org/grpc/stats"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
)

// ServerHandler returns an otelgrpc stats handler for servers.
//
// UnaryServerInterceptor already opens invocation spans for function
// methods; the stats handler adds RPC spans and metrics around them.
func ServerHandler(opts ...Option) stats.Handler {
	return otelgrpc.NewServerHandler(otelOptions(opts)...)
}

// ClientHandler returns an otelgrpc stats handler for clients.
func ClientHandler(opts ...Option) stats.Handler {
	return otelgrpc.NewClientHandler(otelOptions(opts)...)
}
