package engine

import (
	"context"
	"testing"
	"time"

	"github.com/arloliu/fntrace"
	"github.com/arloliu/fntrace/cmd/fntrace-sim/pipeline"
	"github.com/arloliu/fntrace/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestEngine(t *testing.T) (*Engine, *tracetest.InMemoryExporter) {
	t.Helper()

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	e, err := New(context.Background(), Config{
		Options: []fntrace.Option{fntrace.WithTracerProvider(tp)},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown(context.Background()) })

	return e, exp
}

func attrs(kvs []attribute.KeyValue) map[string]string {
	m := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value.Emit()
	}

	return m
}

func fastText() *pipeline.Pipeline {
	p := pipeline.TextPipeline()
	for i := range p.Steps {
		p.Steps[i].Delay = 0
	}

	return p
}

func TestRunner_InProcSharesTrace(t *testing.T) {
	e, exp := newTestEngine(t)
	r, err := e.Runner(fastText(), TransportInProc)
	require.NoError(t, err)
	defer r.Close()

	res, err := r.Run(context.Background(), []byte("Hello"))
	require.NoError(t, err)
	assert.Equal(t, "OLLEH", string(res.Output.Payload))
	assert.Empty(t, res.Failed)

	spans := exp.GetSpans()
	require.Len(t, spans, 6)
	traceID := spans[0].SpanContext.TraceID()
	for _, s := range spans {
		assert.Equal(t, traceID, s.SpanContext.TraceID(), s.Name)
	}
	assert.Equal(t, traceID.String(), res.TraceID)

	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "handle text.in")
	assert.Contains(t, names, "send text.0.normalize")
	assert.Contains(t, names, "handle text.0.normalize")
	assert.Contains(t, names, "send text.2.shout")
}

func TestRunner_StepTags(t *testing.T) {
	e, exp := newTestEngine(t)
	r, err := e.Runner(fastText(), "")
	require.NoError(t, err)

	_, err = r.Run(context.Background(), []byte("x"))
	require.NoError(t, err)

	for _, s := range exp.GetSpans() {
		a := attrs(s.Attributes)
		assert.NotEmpty(t, a["text.stage"], s.Name)
		assert.NotEmpty(t, a[tags.Function], s.Name)
	}
}

func TestRunner_Failure(t *testing.T) {
	e, exp := newTestEngine(t)
	r, err := e.Runner(pipeline.FailingPipeline(), TransportInProc)
	require.NoError(t, err)

	res, err := r.Run(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Equal(t, "broken", res.Failed)
	assert.Contains(t, err.Error(), "step broken: X")

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.SpanKindConsumer, spans[0].SpanKind)
	assert.Equal(t, "X", attrs(spans[0].Attributes)[tags.Error])
}

func TestRunner_HTTP(t *testing.T) {
	e, exp := newTestEngine(t)
	r, err := e.Runner(fastText(), TransportHTTP)
	require.NoError(t, err)
	defer func() { require.NoError(t, r.Close()) }()

	res, err := r.Run(context.Background(), []byte("Hello"))
	require.NoError(t, err)
	assert.Equal(t, "OLLEH", string(res.Output.Payload))

	spans := exp.GetSpans()
	require.Len(t, spans, 6)
	traceID := spans[0].SpanContext.TraceID()
	for _, s := range spans {
		assert.Equal(t, traceID, s.SpanContext.TraceID(), s.Name)
	}
	consumer := 0
	for _, s := range spans {
		if s.SpanKind == trace.SpanKindConsumer {
			consumer++
			assert.Equal(t, "POST", attrs(s.Attributes)[tags.HTTPMethod])
		}
	}
	assert.Equal(t, 3, consumer)
}

func TestRunner_HTTPFailure(t *testing.T) {
	e, _ := newTestEngine(t)
	r, err := e.Runner(pipeline.FailingPipeline(), TransportHTTP)
	require.NoError(t, err)
	defer r.Close()

	res, err := r.Run(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Equal(t, "broken", res.Failed)
}

func TestRunner_UnknownTransport(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Runner(pipeline.UppercasePipeline(), "carrier-pigeon")
	require.Error(t, err)

	_, err = e.Runner(&pipeline.Pipeline{}, TransportInProc)
	require.Error(t, err)
}

func TestRunner_RunBatch(t *testing.T) {
	e, exp := newTestEngine(t)
	p := &pipeline.Pipeline{
		Name: "mixed",
		Steps: []pipeline.Step{
			{Function: "f", Op: pipeline.OpUpper},
		},
	}
	r, err := e.Runner(p, TransportInProc)
	require.NoError(t, err)

	stats, err := r.RunBatch(context.Background(), 20, 4, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, int64(20), stats.Runs)
	assert.Zero(t, stats.Failures)
	assert.Len(t, exp.GetSpans(), 40)

	traces := map[trace.TraceID]struct{}{}
	for _, s := range exp.GetSpans() {
		traces[s.SpanContext.TraceID()] = struct{}{}
	}
	assert.Len(t, traces, 20)
}

func TestRunner_RunBatchCountsFailures(t *testing.T) {
	e, _ := newTestEngine(t)
	r, err := e.Runner(pipeline.FailingPipeline(), TransportInProc)
	require.NoError(t, err)

	stats, err := r.RunBatch(context.Background(), 5, 2, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.Runs)
	assert.Equal(t, int64(5), stats.Failures)
}

func TestRunner_RunBatchCanceled(t *testing.T) {
	e, _ := newTestEngine(t)
	p := pipeline.UppercasePipeline()
	p.Steps[0].Delay = pipeline.Duration(time.Hour)
	r, err := e.Runner(p, TransportInProc)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = r.RunBatch(ctx, 3, 3, []byte("a"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestApplyJitter(t *testing.T) {
	e := &Engine{jitterPct: 20}
	for range 100 {
		d := e.applyJitter(100 * time.Millisecond)
		assert.GreaterOrEqual(t, d, 80*time.Millisecond)
		assert.LessOrEqual(t, d, 120*time.Millisecond)
	}

	assert.Equal(t, time.Second, (&Engine{}).applyJitter(time.Second))
	assert.Zero(t, e.applyJitter(0))
}
