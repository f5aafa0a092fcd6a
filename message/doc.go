// Package message defines the data model shared by the tracing core:
// messages with string headers, the trace context carried in those headers,
// and the result of extracting it.
//
// All types are values. Operations that change headers return new maps so a
// message handed to one invocation never aliases another invocation's headers.
package message
