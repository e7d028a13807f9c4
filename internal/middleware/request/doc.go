// Package request provides request-scoped HTTP middleware, currently a
// per-request deadline applied through the request context.
package request
