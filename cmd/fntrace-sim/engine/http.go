package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/arloliu/fntrace"
	fnhttp "github.com/arloliu/fntrace/http"
	"github.com/arloliu/fntrace/message"
)

// httpChain serves each step of a pipeline on a loopback server and
// forwards every step's output to the next step.
type httpChain struct {
	srv        *http.Server
	steps      []string
	forwarders []*fnhttp.Forwarder
	codecOf    func(message.Message) string
	done       chan error
}

func newHTTPChain(r *Runner) (*httpChain, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	telOpts := r.engine.httpTelemetry()
	mux := http.NewServeMux()
	mux.Handle("/healthz", fnhttp.Middleware("healthz", telOpts...)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	))

	client := fnhttp.NewClient(
		fnhttp.WithTimeout(30*time.Second),
		fnhttp.WithTelemetry(telOpts...),
	)
	base := "http://" + ln.Addr().String()

	c := &httpChain{
		srv:     &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		codecOf: r.traceID,
		done:    make(chan error, 1),
	}
	for _, s := range r.p.Steps {
		fn := fntrace.MessageFunc(func(ctx context.Context, m message.Message) (message.Message, error) {
			return r.invoker(s).Apply(ctx, m)
		})
		mux.Handle("/"+s.Function, fnhttp.FunctionHandler(r.w, s.Function, fn))
		c.steps = append(c.steps, s.Function)
		c.forwarders = append(c.forwarders, fnhttp.NewForwarder(base+"/"+s.Function,
			fnhttp.WithClient(client),
			fnhttp.WithCodec(r.w.Handler().Codec()),
		))
	}

	go func() { c.done <- c.srv.Serve(ln) }()

	return c, nil
}

func (c *httpChain) run(ctx context.Context, msg message.Message) (Result, error) {
	var res Result
	for i, f := range c.forwarders {
		out, err := f.Forward(ctx, msg)
		if err != nil {
			res.Failed = c.steps[i]
			return res, fmt.Errorf("step %s: %w", c.steps[i], err)
		}
		msg = out
		res.TraceID = c.codecOf(msg)
	}
	res.Output = msg

	return res, nil
}

func (c *httpChain) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	if err := <-c.done; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// httpTelemetry returns the providers installed by the engine as HTTP
// options. Unset providers fall back to the globals.
func (e *Engine) httpTelemetry() []fnhttp.Option {
	var opts []fnhttp.Option
	if e.tel.TracerProvider != nil {
		opts = append(opts, fnhttp.WithTracerProvider(e.tel.TracerProvider))
	}
	if e.tel.MeterProvider != nil {
		opts = append(opts, fnhttp.WithMeterProvider(e.tel.MeterProvider))
	}

	return opts
}
