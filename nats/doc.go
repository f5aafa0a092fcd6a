// Package nats runs traced functions on NATS JetStream messages.
//
// [NewProcessor] turns a function into a jetstream.MessageHandler. Each
// consumed message goes through an fntrace.Wrapper: the trace context is
// read from the message headers, the function runs inside a consumer span,
// and its result is published with the headers of a producer span so the
// next consumer continues the same trace.
//
//	w := tel.Wrapper()
//	cons, _ := js.CreateOrUpdateConsumer(ctx, "WORDS", jetstream.ConsumerConfig{Durable: "uppercase"})
//	cc, _ := cons.Consume(nats.NewProcessor(w, "uppercase",
//	    fntrace.PayloadFunc(func(ctx context.Context, p []byte) ([]byte, error) {
//	        return bytes.ToUpper(p), nil
//	    }), js))
//	defer cc.Stop()
//
// Spans are tagged with messaging.system=nats, the stream, and for the
// consumer span the subject, consumer, message id and body size.
package nats
