package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/arloliu/fntrace"
	"github.com/arloliu/fntrace/message"
	"github.com/arloliu/fntrace/span"
	"github.com/arloliu/fntrace/tags"
)

// FunctionHandler serves a function over HTTP.
//
// Each POST request body becomes the input payload and the request headers
// become the input headers, so a B3 or W3C context sent by the caller is
// continued. The function's result is written back as response headers and
// body, the headers carrying the context of the producer span. A function
// error is answered with 500 and tags the invocation span with
// http/status_code.
//
// Panics if w or fn is nil.
//
// Example:
//
//	mux.Handle("/uppercase", http.FunctionHandler(w, "uppercase", fn))
func FunctionHandler(w *fntrace.Wrapper, functionID string, fn fntrace.Invoker, opts ...Option) http.Handler {
	if w == nil {
		panic("fntrace/http: Wrapper must not be nil")
	}
	if fn == nil {
		panic("fntrace/http: Invoker must not be nil")
	}
	cfg := newConfig(opts)
	invoker := statusInvoker{next: fn}

	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.Header().Set("Allow", http.MethodPost)
			http.Error(rw, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)

			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, cfg.maxBodySize))
		if err != nil {
			code := http.StatusBadRequest
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				code = http.StatusRequestEntityTooLarge
			}
			http.Error(rw, http.StatusText(code), code)

			return
		}

		in := message.New(body, HeadersFromHTTP(r.Header))
		out, err := w.Apply(r.Context(), functionID, in, invoker,
			fntrace.WithInputTags(requestTags(r)))
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)

			return
		}

		HeadersToHTTP(rw.Header(), out.Headers)
		rw.Header().Set("Content-Length", strconv.Itoa(len(out.Payload)))
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write(out.Payload)
	})
}

// statusInvoker tags the invocation span with the 500 response a failing
// function produces. The span is still open while the function runs.
type statusInvoker struct {
	next fntrace.Invoker
}

func (s statusInvoker) Apply(ctx context.Context, in message.Message) (message.Message, error) {
	out, err := s.next.Apply(ctx, in)
	if err != nil {
		if code, ok := tags.HTTPStatus(http.StatusInternalServerError); ok {
			if sp := span.FromContext(ctx); sp != nil {
				sp.Tag(tags.HTTPStatusCode, code)
			}
		}
	}

	return out, err
}

// requestTags returns the well-known HTTP tags for r.
func requestTags(r *http.Request) map[string]string {
	u := *r.URL
	u.Host = r.Host
	u.Scheme = "http"
	if r.TLS != nil {
		u.Scheme = "https"
	}

	return map[string]string{
		tags.HTTPHost:   r.Host,
		tags.HTTPMethod: r.Method,
		tags.HTTPPath:   r.URL.Path,
		tags.HTTPURL:    u.String(),
	}
}
