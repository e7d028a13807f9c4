// Package trace provides the outermost HTTP middleware of the gateway.
//
// It assigns every inbound request a trace id (reusing the B3
// x-b3-traceid header when the caller supplies one), propagates the id
// through the request context and the ambient logging handler, measures
// request latency, and converts any panic escaping downstream handlers
// into a fixed JSON 500 response.
//
// The middleware is the failure boundary of the request pipeline:
// nothing escapes past it, and every response that leaves it carries an
// X-Trace-ID header.
//
// Example usage:
//
//	logger := slog.New(trace.NewContextHandler(slog.NewJSONHandler(os.Stderr, nil)))
//	handler := trace.WithTrace(logger)(yourHandler)
package trace
