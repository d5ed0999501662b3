package ajun

import (
	"net/http"
)

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

type ajun struct {
	router      *http.ServeMux
	middlewares []Middleware
}

func newMux() *http.ServeMux {
	return http.NewServeMux()
}

func NewRouter() *ajun {
	return &ajun{
		router: newMux(),
	}
}

// Use appends middlewares. The first one added is the outermost.
func (a *ajun) Use(mw ...Middleware) {
	a.middlewares = append(a.middlewares, mw...)
}

// Get registers handler for GET (and HEAD) on path. "/" matches only the
// root, not every unmatched path.
func (a *ajun) Get(path string, handler http.HandlerFunc) {
	if path == "/" {
		path = "/{$}"
	}
	a.router.HandleFunc(http.MethodGet+" "+path, handler)
}

// Handler returns the mux wrapped by every registered middleware.
func (a *ajun) Handler() http.Handler {
	var h http.Handler = a.router
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}
	return h
}
