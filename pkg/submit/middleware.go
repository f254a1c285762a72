package submit

import "github.com/goliatone/go-formstate/pkg/formengine"

// Middleware wraps a submit func.
type Middleware func(next formengine.SubmitFunc) formengine.SubmitFunc

// Chain wraps final with middlewares. The first middleware is the outermost,
// so it sees the values first.
func Chain(final formengine.SubmitFunc, middlewares ...Middleware) formengine.SubmitFunc {
	out := final
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] == nil {
			continue
		}
		out = middlewares[i](out)
	}
	return out
}
