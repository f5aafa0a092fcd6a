package http

import (
	"bytes"
	"context"
	"testing"

	"github.com/arloliu/fntrace"
	"github.com/arloliu/fntrace/destination"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestTracerProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	return tp, exp
}

func newTestWrapper(tp trace.TracerProvider) *fntrace.Wrapper {
	return fntrace.NewWrapper(
		fntrace.WithTracerProvider(tp),
		fntrace.WithResolver(destination.Bindings{
			"uppercase": {Input: "words", Output: "shouts"},
		}),
	)
}

var upper = fntrace.PayloadFunc(func(_ context.Context, p []byte) ([]byte, error) {
	return bytes.ToUpper(p), nil
})

func attrs(kvs []attribute.KeyValue) map[string]string {
	m := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value.Emit()
	}

	return m
}

func spanOfKind(t *testing.T, spans tracetest.SpanStubs, kind trace.SpanKind) tracetest.SpanStub {
	t.Helper()

	for _, s := range spans {
		if s.SpanKind == kind {
			return s
		}
	}
	require.Failf(t, "span not found", "no %s span", kind)

	return tracetest.SpanStub{}
}
