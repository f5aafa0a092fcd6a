package http

import (
	"net"
	"net/http"
	"time"

	"github.com/arloliu/fntrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// clientConfig holds configuration for HTTP client creation.
type clientConfig struct {
	timeout time.Duration

	dialTimeout           time.Duration
	responseHeaderTimeout time.Duration
	maxIdleConnsPerHost   int
	idleConnTimeout       time.Duration

	base      http.RoundTripper
	telemetry []Option
}

// ClientOption configures an HTTP client.
type ClientOption func(*clientConfig)

// WithTimeout sets the request timeout for the client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithDialTimeout sets the timeout for dialing TCP connections.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.dialTimeout = d
	}
}

// WithResponseHeaderTimeout sets the time to wait for response headers after writing the request.
func WithResponseHeaderTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.responseHeaderTimeout = d
	}
}

// WithMaxIdleConnsPerHost sets the max idle connections to keep per-host.
func WithMaxIdleConnsPerHost(n int) ClientOption {
	return func(c *clientConfig) {
		c.maxIdleConnsPerHost = n
	}
}

// WithIdleConnTimeout sets how long an idle keep-alive connection stays open.
func WithIdleConnTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.idleConnTimeout = d
	}
}

// WithTransport sets the base transport wrapped by otelhttp.
// Timeout options are ignored unless rt is an *http.Transport.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *clientConfig) {
		c.base = rt
	}
}

// WithTelemetry sets the providers and propagator used by the client.
func WithTelemetry(opts ...Option) ClientOption {
	return func(c *clientConfig) {
		c.telemetry = append(c.telemetry, opts...)
	}
}

// NewClient creates an http.Client whose requests are traced by otelhttp.
// Client spans are named "METHOD /path".
//
// Usage:
//
//	client := http.NewClient(
//	    http.WithTimeout(10*time.Second),
//	    http.WithTelemetry(http.WithTracerProvider(tp)),
//	)
func NewClient(opts ...ClientOption) *http.Client {
	c := &clientConfig{base: http.DefaultTransport}
	for _, opt := range opts {
		opt(c)
	}

	return &http.Client{
		Transport: Transport(buildTransport(c), c.telemetry...),
		Timeout:   c.timeout,
	}
}

// Transport wraps base with otelhttp client tracing.
// If base is nil, http.DefaultTransport is used.
func Transport(base http.RoundTripper, opts ...Option) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	otelOpts := append(newConfig(opts).otelOptions(),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fntrace.NameHTTP(r.Method, r.URL.Path)
		}),
	)

	return otelhttp.NewTransport(base, otelOpts...)
}

// buildTransport applies transport settings to a clone of the base transport.
func buildTransport(c *clientConfig) http.RoundTripper {
	t, ok := c.base.(*http.Transport)
	if !ok {
		return c.base
	}
	transport := t.Clone()

	if c.dialTimeout > 0 {
		transport.DialContext = (&net.Dialer{
			Timeout:   c.dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
	}
	if c.responseHeaderTimeout > 0 {
		transport.ResponseHeaderTimeout = c.responseHeaderTimeout
	}
	if c.maxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = c.maxIdleConnsPerHost
	}
	if c.idleConnTimeout > 0 {
		transport.IdleConnTimeout = c.idleConnTimeout
	}

	return transport
}
