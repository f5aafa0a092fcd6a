package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/arloliu/fntrace/codec"
	"github.com/arloliu/fntrace/message"
	"go.opentelemetry.io/otel/trace"
)

// StatusError reports a non-2xx response from a downstream function.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fntrace/http: %s responded %d", e.URL, e.Code)
}

// Forwarder POSTs messages to a downstream function endpoint.
type Forwarder struct {
	url    string
	client *http.Client
	codec  *codec.Codec
}

// ForwarderOption configures a Forwarder.
type ForwarderOption func(*Forwarder)

// WithClient sets the HTTP client. Default is NewClient().
func WithClient(c *http.Client) ForwarderOption {
	return func(f *Forwarder) {
		if c != nil {
			f.client = c
		}
	}
}

// WithCodec sets the codec used to read the trace context of forwarded
// messages. Default is codec.Default.
func WithCodec(c *codec.Codec) ForwarderOption {
	return func(f *Forwarder) {
		if c != nil {
			f.codec = c
		}
	}
}

// NewForwarder creates a Forwarder posting to url.
func NewForwarder(url string, opts ...ForwarderOption) *Forwarder {
	f := &Forwarder{url: url, codec: codec.Default}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = NewClient()
	}

	return f
}

// URL returns the endpoint messages are posted to.
func (f *Forwarder) URL() string {
	return f.url
}

// Forward posts m and returns the downstream response as a message.
//
// The message headers are sent as request headers. When ctx carries no span,
// the client span is parented on the trace context found in m, so the HTTP
// hop joins the message's trace.
func (f *Forwarder) Forward(ctx context.Context, m message.Message) (message.Message, error) {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		if ext := f.codec.Extract(m.Headers); ext.HasContext() {
			ctx = trace.ContextWithRemoteSpanContext(ctx, ext.Context.SpanContext())
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(m.Payload))
	if err != nil {
		return message.Message{}, fmt.Errorf("fntrace/http: build request: %w", err)
	}
	HeadersToHTTP(req.Header, m.Headers)

	resp, err := f.client.Do(req)
	if err != nil {
		return message.Message{}, fmt.Errorf("fntrace/http: forward: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return message.Message{}, fmt.Errorf("fntrace/http: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return message.Message{}, &StatusError{URL: f.url, Code: resp.StatusCode}
	}

	return message.New(body, HeadersFromHTTP(resp.Header)), nil
}
