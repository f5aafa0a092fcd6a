package fntrace

import (
	"fmt"

	"github.com/arloliu/fntrace/codec"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/contrib/propagators/ot"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// propagatorFactories maps OTEL_PROPAGATORS names to constructors.
var propagatorFactories = map[string]func() propagation.TextMapPropagator{
	"tracecontext": func() propagation.TextMapPropagator { return propagation.TraceContext{} },
	"baggage":      func() propagation.TextMapPropagator { return propagation.Baggage{} },
	"b3":           func() propagation.TextMapPropagator { return b3.New() },
	"b3multi": func() propagation.TextMapPropagator {
		return b3.New(b3.WithInjectEncoding(b3.B3MultipleHeader))
	},
	"jaeger":  func() propagation.TextMapPropagator { return jaeger.Jaeger{} },
	"ottrace": func() propagation.TextMapPropagator { return ot.OT{} },
	"xray":    func() propagation.TextMapPropagator { return xray.Propagator{} },
}

// buildPropagator creates the process-wide propagator from OTEL_PROPAGATORS.
// "none" disables propagation. Unknown names are reported via otel.Handle
// and ignored.
func buildPropagator(cfg *PropConfig) propagation.TextMapPropagator {
	var props []propagation.TextMapPropagator
	for _, name := range cfg.Names() {
		if name == "none" {
			return propagation.NewCompositeTextMapPropagator()
		}
		factory, ok := propagatorFactories[name]
		if !ok {
			otel.Handle(fmt.Errorf("fntrace: unknown propagator %q in OTEL_PROPAGATORS, ignoring", name))
			continue
		}
		props = append(props, factory())
	}

	return propagation.NewCompositeTextMapPropagator(props...)
}

// NewCodec returns the message header codec for cfg: B3 multi-header plus the
// configured propagators as secondary format. B3 entries are skipped since
// the codec writes B3 itself; baggage is skipped so it reaches the function
// untouched.
func NewCodec(cfg *PropConfig) *codec.Codec {
	var props []propagation.TextMapPropagator
	for _, name := range cfg.Names() {
		switch name {
		case "none":
			return codec.New()
		case "b3", "b3multi", "baggage":
			continue
		}
		if factory, ok := propagatorFactories[name]; ok {
			props = append(props, factory())
		}
	}
	if len(props) == 0 {
		return codec.New()
	}

	return codec.New(codec.WithPropagator(propagation.NewCompositeTextMapPropagator(props...)))
}
