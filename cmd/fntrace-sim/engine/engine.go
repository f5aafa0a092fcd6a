// Package engine runs simulator pipelines through fntrace wrappers.
package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/arloliu/fntrace"
	"github.com/arloliu/fntrace/cmd/fntrace-sim/pipeline"
	"github.com/arloliu/fntrace/destination"
	"github.com/arloliu/fntrace/message"
	"github.com/arloliu/fntrace/tags"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"golang.org/x/sync/errgroup"
)

// Transport selects how steps hand messages to each other.
type Transport string

const (
	// TransportInProc chains steps by function call.
	TransportInProc Transport = "inproc"
	// TransportHTTP serves every step over HTTP and forwards between them.
	TransportHTTP Transport = "http"
)

// Engine runs pipelines against one set of telemetry providers.
type Engine struct {
	tel       *fntrace.Telemetry
	opts      []fntrace.Option
	jitterPct int
	logger    otellog.Logger
}

// Config holds engine configuration.
type Config struct {
	Telemetry *fntrace.TelemetryConfig
	JitterPct int

	// Options are applied to every wrapper after the telemetry defaults.
	Options []fntrace.Option
}

// New installs the telemetry providers of cfg and returns an Engine.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	tel, err := fntrace.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}

	lp := otellog.LoggerProvider(global.GetLoggerProvider())
	if tel.LoggerProvider != nil {
		lp = tel.LoggerProvider
	}

	return &Engine{
		tel:       tel,
		opts:      cfg.Options,
		jitterPct: cfg.JitterPct,
		logger:    lp.Logger("fntrace-sim"),
	}, nil
}

// Shutdown flushes and closes providers.
func (e *Engine) Shutdown(ctx context.Context) error {
	return e.tel.Shutdown(ctx)
}

// Result is the outcome of one pipeline run.
type Result struct {
	Output  message.Message
	TraceID string
	// Failed is the function that returned an error, empty on success.
	Failed string
}

// Stats summarizes a batch of runs.
type Stats struct {
	Runs     int64
	Failures int64
}

// Runner runs one pipeline.
type Runner struct {
	p         *pipeline.Pipeline
	w         *fntrace.Wrapper
	engine    *Engine
	transport Transport
	chain     *httpChain
}

// Runner prepares p for running over transport. Close releases what the
// transport holds.
func (e *Engine) Runner(p *pipeline.Pipeline, transport Transport) (*Runner, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	opts := append([]fntrace.Option{
		fntrace.WithResolver(destination.Chain(p.Bindings(), e.tel.Resolver())),
		fntrace.WithSpanNamer(fntrace.MessagingNamer{}),
	}, e.opts...)
	r := &Runner{p: p, w: e.tel.Wrapper(opts...), engine: e, transport: transport}

	switch transport {
	case TransportInProc, "":
		r.transport = TransportInProc
	case TransportHTTP:
		chain, err := newHTTPChain(r)
		if err != nil {
			return nil, err
		}
		r.chain = chain
	default:
		return nil, fmt.Errorf("unknown transport: %s", transport)
	}

	return r, nil
}

// Close stops the servers of an HTTP runner.
func (r *Runner) Close() error {
	if r.chain == nil {
		return nil
	}

	return r.chain.close()
}

// Run sends payload through every step of the pipeline.
// A step error ends the run and is returned along with the failing step.
func (r *Runner) Run(ctx context.Context, payload []byte) (Result, error) {
	msg := message.New(payload, nil)

	var (
		res Result
		err error
	)
	if r.chain != nil {
		res, err = r.chain.run(ctx, msg)
	} else {
		res, err = r.runInProc(ctx, msg)
	}
	r.engine.logRun(ctx, r.p.Name, res, err)

	return res, err
}

func (r *Runner) runInProc(ctx context.Context, msg message.Message) (Result, error) {
	var res Result
	for _, s := range r.p.Steps {
		out, err := r.w.Apply(ctx, s.Function, msg, r.invoker(s), fntrace.WithTags(s.Tags))
		if err != nil {
			res.Failed = s.Function
			return res, fmt.Errorf("step %s: %w", s.Function, err)
		}
		msg = out
		res.TraceID = r.traceID(msg)
	}
	res.Output = msg

	return res, nil
}

// RunBatch runs the pipeline count times with at most concurrency runs in
// flight. Step failures are counted, not returned; only ctx cancellation
// stops the batch early.
func (r *Runner) RunBatch(ctx context.Context, count, concurrency int, payload []byte) (Stats, error) {
	var runs, failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for range count {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			runs.Add(1)
			if _, err := r.Run(gctx, payload); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures.Add(1)
			}

			return nil
		})
	}
	err := g.Wait()

	return Stats{Runs: runs.Load(), Failures: failures.Load()}, err
}

func (r *Runner) invoker(s pipeline.Step) fntrace.Invoker {
	return s.Invoker(r.engine.applyJitter(s.Delay.AsDuration()))
}

func (r *Runner) traceID(m message.Message) string {
	return r.w.Handler().Codec().Extract(m.Headers).Context.TraceIDString()
}

// logRun emits one record per pipeline run.
func (e *Engine) logRun(ctx context.Context, name string, res Result, err error) {
	var rec otellog.Record
	rec.SetTimestamp(time.Now())
	rec.AddAttributes(
		otellog.String("pipeline", name),
		otellog.String("trace_id", res.TraceID),
	)
	if err != nil {
		rec.SetSeverity(otellog.SeverityError)
		rec.SetBody(otellog.StringValue("pipeline run failed"))
		rec.AddAttributes(
			otellog.String(tags.Function, res.Failed),
			otellog.String(tags.Error, err.Error()),
		)
	} else {
		rec.SetSeverity(otellog.SeverityInfo)
		rec.SetBody(otellog.StringValue("pipeline run completed"))
	}
	e.logger.Emit(ctx, rec)
}

// applyJitter adds random timing variation to a duration.
func (e *Engine) applyJitter(d time.Duration) time.Duration {
	if e.jitterPct <= 0 || d <= 0 {
		return d
	}
	jitter := float64(d) * float64(e.jitterPct) / 100.0
	offset := (rand.Float64() * 2 * jitter) - jitter //nolint:gosec // weak rand is fine for jitter

	return d + time.Duration(offset)
}
