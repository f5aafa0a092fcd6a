// Package span manages the lifecycle of the spans fntrace opens around a
// function invocation.
//
// A [Span] moves through CREATED, STARTED and FINISHED exactly once:
//
//	s := lc.New("handle", ext, span.WithKind(trace.SpanKindConsumer))
//	ctx = s.Start(ctx)
//	defer s.Finish(err)
//
// Finishing twice is harmless: the second call changes nothing and returns
// [ErrAlreadyFinished]. Spans are backed by an OTel tracer, so sampling and
// export are left to the SDK.
package span
