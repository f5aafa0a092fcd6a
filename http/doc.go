// Package http serves and calls traced functions over HTTP.
//
// # Serving
//
// [FunctionHandler] runs a function for every POST request. The request body
// is the input payload and the request headers carry the trace context:
//
//	mux := http.NewServeMux()
//	mux.Handle("/uppercase", fnhttp.FunctionHandler(w, "uppercase", fn))
//
// The response carries the function result and the headers of the producer
// span, ready to be sent to the next function.
//
// # Forwarding
//
// [Forwarder] posts a message to a downstream function through a client
// traced by otelhttp:
//
//	f := fnhttp.NewForwarder("http://shouter/uppercase")
//	resp, err := f.Forward(ctx, out)
package http
