// Package grpc carries fntrace trace context over gRPC metadata.
//
// [HeadersFromMetadata] and [MetadataFromHeaders] convert between gRPC
// metadata and message headers. [UnaryServerInterceptor] runs unary calls as
// function invocations:
//
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(fngrpc.UnaryServerInterceptor(w, "lookup")),
//	    grpc.StatsHandler(fngrpc.ServerHandler()),
//	)
//
// On the calling side, [OutgoingContext] attaches a message's headers to an
// RPC:
//
//	conn, _ := grpc.NewClient(target, grpc.WithStatsHandler(fngrpc.ClientHandler()))
//	ctx = fngrpc.OutgoingContext(ctx, out)
//	resp, err := pb.NewLookupClient(conn).Lookup(ctx, req)
package grpc
