package chain

import "github.com/strataweb/strata/pkg/web"

// CompiledChain is the immutable result of compiling a middleware snapshot
// around a terminal handler. Rather than nesting closures at build time, the
// chain keeps the stages as an ordered slice and advances an index-based
// cursor at request time: "calling next" invokes the stage at the next index.
// The structure is read-only after compilation and safe for unbounded
// concurrent traversal; each Execute call owns its cursor state exclusively.
type CompiledChain struct {
	stages   []Middleware
	terminal Handler
}

// Compile builds a chain from a snapshot of registered middleware and a
// terminal handler. It is pure and deterministic: the same inputs always
// yield an equivalent chain. The snapshot is copied, so later registry
// mutation cannot affect the compiled result. Cost is O(n) in the number of
// stages and is paid here, never per request.
func Compile(snapshot []Middleware, terminal Handler) *CompiledChain {
	if terminal == nil {
		panic("chain: nil terminal handler")
	}
	stages := make([]Middleware, len(snapshot))
	copy(stages, snapshot)
	return &CompiledChain{stages: stages, terminal: terminal}
}

// Len returns the number of middleware stages in the chain.
func (c *CompiledChain) Len() int {
	return len(c.stages)
}

// Entry returns the chain's public entry point: a handler that runs the full
// traversal, first-registered middleware outermost.
func (c *CompiledChain) Entry() Handler {
	return c.Execute
}

// Execute performs one traversal of the chain for the given request. Stages
// run in registration order on the way in and reverse order on the way out;
// a stage that returns without calling its continuation short-circuits every
// stage below it, including the terminal handler.
func (c *CompiledChain) Execute(req *web.Request) (*web.Response, error) {
	return c.call(0, req)
}

// call invokes the stage at index i, handing it a one-shot continuation bound
// to index i+1. Index len(stages) is the terminal handler.
func (c *CompiledChain) call(i int, req *web.Request) (*web.Response, error) {
	if i == len(c.stages) {
		return c.terminal(req)
	}
	called := false
	next := func(r *web.Request) (*web.Response, error) {
		if called {
			return nil, ErrNextCalledTwice
		}
		called = true
		return c.call(i+1, r)
	}
	return c.stages[i](req, next)
}
