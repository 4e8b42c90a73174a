// Package router provides HTTP routing for the strata framework. It matches
// requests against registered path patterns using httprouter's radix tree and
// exposes the match step as a chain.Handler, making the router the terminal
// handler the middleware pipeline is compiled around.
package router

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/strataweb/strata/pkg/chain"
	"github.com/strataweb/strata/pkg/web"
)

// Router matches requests to handlers. Path patterns follow httprouter
// syntax: named parameters as ":name" and catch-alls as "*name".
type Router struct {
	tree             *httprouter.Router
	methods          map[string]struct{}
	notFound         chain.Handler
	methodNotAllowed chain.Handler
}

// New creates an empty Router with default 404 and 405 handlers.
func New() *Router {
	return &Router{
		tree:    httprouter.New(),
		methods: make(map[string]struct{}),
		notFound: func(*web.Request) (*web.Response, error) {
			return web.Error(http.StatusNotFound), nil
		},
		methodNotAllowed: func(*web.Request) (*web.Response, error) {
			return web.Error(http.StatusMethodNotAllowed), nil
		},
	}
}

// route is what the tree's Handle closures capture; matching recovers it
// through a probe invocation (see lookup).
type route struct {
	handler chain.Handler
}

// probe is the minimal http.ResponseWriter the Handle closures write their
// route into during lookup. No bytes ever reach a client through it.
type probe struct {
	route *route
}

func (p *probe) Header() http.Header       { return http.Header{} }
func (p *probe) Write(b []byte) (int, error) { return len(b), nil }
func (p *probe) WriteHeader(int)           {}

// Handle registers a handler for the given method and path pattern.
func (r *Router) Handle(method, path string, h chain.Handler) {
	if h == nil {
		panic("router: nil handler")
	}
	rt := &route{handler: h}
	r.methods[method] = struct{}{}
	r.tree.Handle(method, path, func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.(*probe).route = rt
	})
}

// GET registers a handler for GET requests on the given path.
func (r *Router) GET(path string, h chain.Handler) { r.Handle(http.MethodGet, path, h) }

// POST registers a handler for POST requests on the given path.
func (r *Router) POST(path string, h chain.Handler) { r.Handle(http.MethodPost, path, h) }

// PUT registers a handler for PUT requests on the given path.
func (r *Router) PUT(path string, h chain.Handler) { r.Handle(http.MethodPut, path, h) }

// DELETE registers a handler for DELETE requests on the given path.
func (r *Router) DELETE(path string, h chain.Handler) { r.Handle(http.MethodDelete, path, h) }

// PATCH registers a handler for PATCH requests on the given path.
func (r *Router) PATCH(path string, h chain.Handler) { r.Handle(http.MethodPatch, path, h) }

// HEAD registers a handler for HEAD requests on the given path.
func (r *Router) HEAD(path string, h chain.Handler) { r.Handle(http.MethodHead, path, h) }

// OPTIONS registers a handler for OPTIONS requests on the given path.
func (r *Router) OPTIONS(path string, h chain.Handler) { r.Handle(http.MethodOptions, path, h) }

// NotFound replaces the handler invoked when no route matches the path.
func (r *Router) NotFound(h chain.Handler) { r.notFound = h }

// MethodNotAllowed replaces the handler invoked when the path matches a route
// but the method does not.
func (r *Router) MethodNotAllowed(h chain.Handler) { r.methodNotAllowed = h }

// lookup resolves method+path to a registered route and its path parameters.
func (r *Router) lookup(method, path string) (*route, web.Params, bool) {
	h, ps, _ := r.tree.Lookup(method, path)
	if h == nil {
		return nil, nil, false
	}
	p := &probe{}
	h(p, nil, ps)
	params := make(web.Params, 0, len(ps))
	for _, kv := range ps {
		params = append(params, web.Param{Key: kv.Key, Value: kv.Value})
	}
	return p.route, params, true
}

// HandleRequest is the router's terminal handler: it matches the request
// path, injects path parameters, and invokes the matched route's handler.
// Unmatched paths produce 404, matched paths with an unregistered method 405
// with an Allow header. This is the function handed to the pipeline's Build.
func (r *Router) HandleRequest(req *web.Request) (*web.Response, error) {
	rt, params, ok := r.lookup(req.Method, req.Path)
	if ok {
		req.Params = params
		return rt.handler(req)
	}

	// Probe the other registered methods to distinguish 405 from 404.
	var allowed []string
	for m := range r.methods {
		if m == req.Method {
			continue
		}
		if h, _, _ := r.tree.Lookup(m, req.Path); h != nil {
			allowed = append(allowed, m)
		}
	}
	if len(allowed) > 0 {
		resp, err := r.methodNotAllowed(req)
		if resp != nil && resp.Header.Get("Allow") == "" {
			for _, m := range allowed {
				resp.Header.Add("Allow", m)
			}
		}
		return resp, err
	}
	return r.notFound(req)
}
