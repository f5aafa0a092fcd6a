package fntrace

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names.
const (
	MetricInvocations = "fntrace.invocations"
	MetricDuration    = "fntrace.invocation.duration"
)

// Outcome attribute values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomePanic   = "panic"
)

const (
	attrFunction = "function.name"
	attrOutcome  = "outcome"
)

type metrics struct {
	invocations metric.Int64Counter
	duration    metric.Float64Histogram
}

func newMetrics(mp metric.MeterProvider) *metrics {
	meter := mp.Meter(instrumentationName)

	invocations, err := meter.Int64Counter(MetricInvocations,
		metric.WithDescription("Number of traced function invocations."),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		otel.Handle(err)
	}
	duration, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Duration of traced function invocations."),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
	}

	return &metrics{invocations: invocations, duration: duration}
}

func (m *metrics) record(ctx context.Context, functionID, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributeSet(attribute.NewSet(
		attribute.String(attrFunction, functionID),
		attribute.String(attrOutcome, outcome),
	))
	if m.invocations != nil {
		m.invocations.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
