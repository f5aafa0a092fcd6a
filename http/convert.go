package http

import (
	"net/http"

	"github.com/arloliu/fntrace/message"
)

// connection-level headers that describe one HTTP exchange, not the message.
var hopHeaders = map[string]bool{
	"Connection":        true,
	"Content-Length":    true,
	"Date":              true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
}

// HeadersFromHTTP converts HTTP headers, keeping the first value of each key.
// Connection-level headers such as Content-Length are dropped.
func HeadersFromHTTP(h http.Header) message.Headers {
	out := make(message.Headers, len(h))
	for k, vals := range h {
		if len(vals) > 0 && !hopHeaders[http.CanonicalHeaderKey(k)] {
			out[k] = vals[0]
		}
	}

	return out
}

// HeadersToHTTP copies message headers into dst.
func HeadersToHTTP(dst http.Header, h message.Headers) {
	for k, v := range h {
		dst.Set(k, v)
	}
}
