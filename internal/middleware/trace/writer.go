package trace

import (
	"net/http"
)

// responseWriter wraps http.ResponseWriter to capture the final status code
// and whether the response has been committed.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

// WriteHeader captures the status code and marks the response committed.
func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

// Write marks the response committed; net/http sends an implicit 200 on the
// first Write if WriteHeader was not called.
func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Status returns the captured status code.
func (w *responseWriter) Status() int {
	return w.status
}

// Written reports whether any part of the response has been sent.
func (w *responseWriter) Written() bool {
	return w.wroteHeader
}
