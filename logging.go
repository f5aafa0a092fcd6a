package fntrace

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/log"
)

// debugLogger emits debug records through the OTel log API. Records carry
// the span in ctx, so the SDK stamps them with trace and span ids.
type debugLogger struct {
	logger log.Logger
}

func newDebugLogger(lp log.LoggerProvider) debugLogger {
	return debugLogger{logger: lp.Logger(instrumentationName)}
}

func (l debugLogger) enabled(ctx context.Context) bool {
	return l.logger.Enabled(ctx, log.EnabledParameters{Severity: log.SeverityDebug})
}

func (l debugLogger) debug(ctx context.Context, msg string, attrs ...log.KeyValue) {
	if !l.enabled(ctx) {
		return
	}

	var r log.Record
	r.SetTimestamp(time.Now())
	r.SetSeverity(log.SeverityDebug)
	r.SetSeverityText("DEBUG")
	r.SetBody(log.StringValue(msg))
	r.AddAttributes(attrs...)
	l.logger.Emit(ctx, r)
}
