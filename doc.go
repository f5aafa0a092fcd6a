// Package fntrace traces function-style message handlers.
//
// For every inbound message fntrace extracts the trace context from the
// message headers (B3 multi-header, optionally W3C traceparent), opens a
// consumer span around the function, and on success opens a producer span
// whose context is injected into the headers of the result. Downstream
// consumers continue the same trace.
//
// # Quick Start
//
//	cfg, err := fntrace.LoadConfig("telemetry.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tel, err := fntrace.Setup(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(ctx)
//
//	w := tel.Wrapper()
//	out, err := w.Apply(ctx, "uppercase", in,
//	    fntrace.PayloadFunc(func(ctx context.Context, p []byte) ([]byte, error) {
//	        return bytes.ToUpper(p), nil
//	    }))
//
// An error returned by the function is returned unchanged by Apply, after
// the consumer span is finished with the error recorded. No output message
// and no producer span are produced in that case.
//
// # Configuration
//
// Configure via YAML or environment variables (OTel standard names):
//
//	enabled: true
//	serviceName: "word-functions"  # OTEL_SERVICE_NAME
//	traces:
//	  exporter: "otlp"  # OTEL_TRACES_EXPORTER
//	  sampling:
//	    sampler: "parentbased_always_on"  # OTEL_TRACES_SAMPLER
//	otlp:
//	  endpoint: "otel-collector:4317"  # OTEL_EXPORTER_OTLP_ENDPOINT
//	propagation:
//	  propagators: "tracecontext,baggage"  # OTEL_PROPAGATORS
//	function:
//	  enabled: true  # FNTRACE_FUNCTION_ENABLED
//	  bindings:
//	    uppercase:
//	      input: words
//	      output: shouts
//
// # Span Naming
//
// The [SpanNamer] interface controls span names. [DefaultNamer] yields
// "handle" and "send"; [MessagingNamer] appends the destination, as in
// "send shouts".
//
// # Transports
//
// The nats, http and grpc sub-packages run a Wrapper per JetStream
// message, HTTP request or gRPC call.
package fntrace
