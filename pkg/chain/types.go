// Package chain implements the middleware pipeline: an ordered registry of
// request interceptors, a compiler that folds them together with a terminal
// handler into one immutable composed entry point, and a dispatcher that runs
// the compiled result once per request with onion-style pre/post semantics.
package chain

import "github.com/strataweb/strata/pkg/web"

// Handler processes a request and produces a response. The terminal handler
// supplied to Build has this shape, as does the entry point of a compiled
// chain.
type Handler func(*web.Request) (*web.Response, error)

// Next is the continuation a middleware invokes to proceed to the next stage.
// It is valid for exactly one call during that middleware's activation: a
// second call fails with ErrNextCalledTwice, and the continuation must not be
// stored or invoked after the activation returns. Not calling it at all
// short-circuits the remainder of the chain.
type Next func(*web.Request) (*web.Response, error)

// Middleware is a single unit of request-processing behavior. It receives the
// request and the continuation to the next stage, and returns a response. It
// may do work before calling next, after next returns, or skip next entirely.
//
// A middleware must not retain mutable state across requests. Per-request
// state belongs in the request's context, allocated fresh inside the call.
type Middleware func(*web.Request, Next) (*web.Response, error)
