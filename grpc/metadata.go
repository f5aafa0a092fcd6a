package grpc

import (
	"context"
	"strings"

	"github.com/arloliu/fntrace/message"
	"google.golang.org/grpc/metadata"
)

// HeadersFromMetadata converts gRPC metadata, keeping the first value of
// each key. Binary ("-bin") keys are skipped.
func HeadersFromMetadata(md metadata.MD) message.Headers {
	out := make(message.Headers, len(md))
	for k, vals := range md {
		if len(vals) == 0 || isBinaryKey(k) {
			continue
		}
		out[k] = vals[0]
	}

	return out
}

// MetadataFromHeaders converts message headers to gRPC metadata.
// Keys are lowercased as gRPC requires.
func MetadataFromHeaders(h message.Headers) metadata.MD {
	md := make(metadata.MD, len(h))
	for k, v := range h {
		md.Set(k, v)
	}

	return md
}

// IncomingMessage builds a message from payload and the incoming metadata
// of ctx.
func IncomingMessage(ctx context.Context, payload []byte) message.Message {
	md, _ := metadata.FromIncomingContext(ctx)

	return message.New(payload, HeadersFromMetadata(md))
}

// OutgoingContext returns ctx carrying m's headers as outgoing metadata,
// merged over any metadata already attached.
func OutgoingContext(ctx context.Context, m message.Message) context.Context {
	md := metadata.MD{}
	if prev, ok := metadata.FromOutgoingContext(ctx); ok {
		md = prev.Copy()
	}
	for k, v := range m.Headers {
		md.Set(k, v)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func isBinaryKey(k string) bool {
	return strings.HasSuffix(k, "-bin")
}
