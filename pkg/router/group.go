package router

import (
	"net/http"
	"strings"

	"github.com/strataweb/strata/pkg/chain"
)

// Group is a set of routes sharing a common path prefix. Groups register
// into the parent router's tree; they carry no state of their own beyond the
// prefix, so nesting is cheap.
type Group struct {
	router *Router
	prefix string
}

// Group creates a sub-router whose routes are all registered under prefix.
func (r *Router) Group(prefix string) *Group {
	return &Group{router: r, prefix: strings.TrimSuffix(prefix, "/")}
}

// Group creates a nested group under this group's prefix.
func (g *Group) Group(prefix string) *Group {
	return &Group{router: g.router, prefix: g.prefix + strings.TrimSuffix(prefix, "/")}
}

// Handle registers a handler for the given method on the prefixed path.
func (g *Group) Handle(method, path string, h chain.Handler) {
	g.router.Handle(method, g.prefix+path, h)
}

// GET registers a handler for GET requests on the prefixed path.
func (g *Group) GET(path string, h chain.Handler) { g.Handle(http.MethodGet, path, h) }

// POST registers a handler for POST requests on the prefixed path.
func (g *Group) POST(path string, h chain.Handler) { g.Handle(http.MethodPost, path, h) }

// PUT registers a handler for PUT requests on the prefixed path.
func (g *Group) PUT(path string, h chain.Handler) { g.Handle(http.MethodPut, path, h) }

// DELETE registers a handler for DELETE requests on the prefixed path.
func (g *Group) DELETE(path string, h chain.Handler) { g.Handle(http.MethodDelete, path, h) }

// PATCH registers a handler for PATCH requests on the prefixed path.
func (g *Group) PATCH(path string, h chain.Handler) { g.Handle(http.MethodPatch, path, h) }
