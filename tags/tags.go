// Package tags holds the well-known span tag keys used by fntrace and by
// instrumentation layers that attach attributes to its spans.
//
// Keep the set small: every tag is exported with every span, so only tag
// what is needed to classify, filter or display traces.
package tags

import (
	"maps"
	"slices"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
)

// HTTP tag keys.
const (
	// HTTPHost is the domain portion of the URL or host header, e.g. "mybucket.s3.amazonaws.com".
	HTTPHost = "http/host"

	// HTTPMethod is the HTTP method, e.g. "GET" or "POST".
	HTTPMethod = "http/method"

	// HTTPPath is the absolute path without query parameters, e.g. "/objects/abcd-ff".
	HTTPPath = "http/path"

	// HTTPURL is the entire URL including scheme, host and query.
	// It may carry private data; attach it only when needed.
	HTTPURL = "http/url"

	// HTTPStatusCode is the response code when outside the 2xx range, e.g. "503".
	HTTPStatusCode = "http/status_code"
)

// Messaging and function tag keys.
const (
	MessagingSystem        = "messaging.system"
	MessagingDestination   = "messaging.destination.name"
	MessagingOperationType = "messaging.operation.type"
	MessagingMessageID     = "messaging.message.id"
	MessagingBodySize      = "messaging.message.body.size"

	// Function is the identifier of the invoked function.
	Function = "function.name"
)

// Error tag keys, set when a span finishes with an error.
const (
	Error     = "error"
	ErrorType = "error.type"
)

// Operation types for MessagingOperationType.
const (
	OperationProcess = "process"
	OperationSend    = "send"
)

// Attributes converts a tag map into OTel attributes, ordered by key.
func Attributes(tags map[string]string) []attribute.KeyValue {
	if len(tags) == 0 {
		return nil
	}

	attrs := make([]attribute.KeyValue, 0, len(tags))
	for _, k := range slices.Sorted(maps.Keys(tags)) {
		attrs = append(attrs, attribute.String(k, tags[k]))
	}

	return attrs
}

// HTTPStatus returns the HTTPStatusCode tag value for code.
// 2xx codes are not tagged and report false.
func HTTPStatus(code int) (string, bool) {
	if code >= 200 && code < 300 {
		return "", false
	}

	return strconv.Itoa(code), true
}
