package router

import "net/http"

// Middleware wraps a handler. The first middleware in a chain sees the
// request first and the response last.
type Middleware func(http.Handler) http.Handler

// Chain applies mws to h in declaration order.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
