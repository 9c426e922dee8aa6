// Package kit holds the small transport-agnostic plumbing shared by the
// tool surfaces: an endpoint abstraction, middleware chaining, and
// request-scoped context values.
package kit

import "context"

// Endpoint is a single request/response operation. Transports decode
// their wire format into req and encode resp back out.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behavior.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares left to right: the first argument is the
// outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
