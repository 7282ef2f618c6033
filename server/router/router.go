package router

import (
	"strings"
)

type HTTPRouter struct {
	treeroot node
	fallback Handler
}

// init a new router
func NewHTTPRouter() *HTTPRouter {
	return &HTTPRouter{}
}

// Route links an exact path (no query) to h
func (r *HTTPRouter) Route(path string, h Handler) {
	r.treeroot.insert(path, h)
}

// Fallback handles every uri no route matches
func (r *HTTPRouter) Fallback(h Handler) {
	r.fallback = h
}

// Serve picks the handler for a request uri;
// only the part before '?' takes part in matching
func (r *HTTPRouter) Serve(uri string) Handler {
	path, _, _ := strings.Cut(uri, "?")
	if h := r.treeroot.match(path); h != nil {
		return h
	}
	return r.fallback
}
