package grpc

import (
	"context"
	"fmt"

	"github.com/arloliu/fntrace"
	"github.com/arloliu/fntrace/message"
	"github.com/arloliu/fntrace/span"
	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// RPC tag keys.
const (
	TagRPCSystem     = "rpc.system"
	TagRPCMethod     = "rpc.method"
	TagRPCStatusCode = "rpc.grpc.status_code"
)

// UnaryServerInterceptor runs every unary call as an invocation of
// functionID.
//
// The trace context is read from the incoming metadata and the handler runs
// inside the invocation span. On success the producer span's headers are
// sent back as response header metadata. A failing handler tags the span
// with its numeric gRPC status code.
//
// Panics if w is nil.
func UnaryServerInterceptor(w *fntrace.Wrapper, functionID string) grpc.UnaryServerInterceptor {
	if w == nil {
		panic("fntrace/grpc: Wrapper must not be nil")
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var resp any
		fn := fntrace.MessageFunc(func(ctx context.Context, _ message.Message) (message.Message, error) {
			r, err := handler(ctx, req)
			if err != nil {
				if sp := span.FromContext(ctx); sp != nil {
					sp.TagInt(TagRPCStatusCode, int(status.Code(err)))
				}

				return message.Message{}, err
			}
			resp = r

			return message.Message{}, nil
		})

		out, err := w.Apply(ctx, functionID, IncomingMessage(ctx, nil), fn,
			fntrace.WithTag(TagRPCSystem, "grpc"),
			fntrace.WithInputTags(map[string]string{TagRPCMethod: info.FullMethod}),
		)
		if err != nil {
			return nil, err
		}

		if err := grpc.SetHeader(ctx, MetadataFromHeaders(out.Headers)); err != nil {
			otel.Handle(fmt.Errorf("fntrace/grpc: set header: %w", err))
		}

		return resp, nil
	}
}
