package fntrace

import (
	"context"
	"errors"

	"github.com/arloliu/fntrace/destination"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Telemetry holds the providers installed by Setup. Providers for disabled
// signals are nil.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	LoggerProvider *sdklog.LoggerProvider
	MeterProvider  *sdkmetric.MeterProvider

	cfg *TelemetryConfig
}

// Setup installs the tracer, logger and meter providers enabled in cfg.
// A disabled cfg is not an error: the returned Telemetry has no providers
// and wrappers built from it fall back to the global (no-op) ones.
func Setup(ctx context.Context, cfg *TelemetryConfig) (*Telemetry, error) {
	t := &Telemetry{cfg: cfg}
	if !cfg.IsEnabled() {
		return t, nil
	}

	var err error
	t.TracerProvider, err = NewTracerProvider(ctx, cfg)
	if err != nil && !errors.Is(err, ErrTracesDisabled) {
		return nil, err
	}
	t.LoggerProvider, err = NewLoggerProvider(ctx, cfg)
	if err != nil && !errors.Is(err, ErrLogsDisabled) {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	t.MeterProvider, err = NewMeterProvider(ctx, cfg)
	if err != nil && !errors.Is(err, ErrMetricsDisabled) {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}

	return t, nil
}

// Wrapper returns a Wrapper configured from the telemetry config: the
// installed providers, the codec for cfg.Propagation, and the function
// bindings and switch. opts are applied last.
func (t *Telemetry) Wrapper(opts ...Option) *Wrapper {
	var base []Option
	if t.TracerProvider != nil {
		base = append(base, WithTracerProvider(t.TracerProvider))
	}
	if t.LoggerProvider != nil {
		base = append(base, WithLoggerProvider(t.LoggerProvider))
	}
	if t.MeterProvider != nil {
		base = append(base, WithMeterProvider(t.MeterProvider))
	}
	if t.cfg != nil {
		base = append(base,
			WithCodec(NewCodec(t.cfg.Propagation)),
			WithResolver(t.cfg.Function.Resolver()),
			WithEnabled(t.cfg.Function.IsEnabled()),
		)
	}

	return NewWrapper(append(base, opts...)...)
}

// Resolver returns the destination resolver of the configured function
// bindings.
func (t *Telemetry) Resolver() destination.Resolver {
	if t.cfg == nil {
		return destination.Nop
	}

	return t.cfg.Function.Resolver()
}

// Shutdown flushes and stops every installed provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.TracerProvider != nil {
		errs = append(errs, t.TracerProvider.Shutdown(ctx))
	}
	if t.MeterProvider != nil {
		errs = append(errs, t.MeterProvider.Shutdown(ctx))
	}
	if t.LoggerProvider != nil {
		errs = append(errs, t.LoggerProvider.Shutdown(ctx))
	}

	return errors.Join(errs...)
}
