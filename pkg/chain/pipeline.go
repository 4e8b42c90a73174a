package chain

import (
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/strataweb/strata/pkg/web"
)

// State is the pipeline lifecycle state.
type State int32

const (
	// StateBuilding means the registry is mutable and no compiled chain is
	// guaranteed to exist.
	StateBuilding State = iota

	// StateCompiled means a chain has been built from the registry's contents
	// at some point in time. Registering further middleware moves the
	// pipeline back to Building until the next Build.
	StateCompiled

	// StateFrozen means the compiled chain is the single source of truth.
	// Registration is rejected and the state is terminal for the life of the
	// process.
	StateFrozen
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "Building"
	case StateCompiled:
		return "Compiled"
	case StateFrozen:
		return "Frozen"
	default:
		return "Unknown"
	}
}

// Pipeline owns the middleware registry, the lifecycle state machine and the
// current compiled chain. Registration and building happen during setup;
// after Freeze the pipeline serves dispatches concurrently with zero
// per-request assembly cost.
//
// The state transition is guarded by a mutex so a Freeze racing an early
// dispatch is safe, though serving before setup completes is not the
// intended use. The compiled chain itself is held in an atomic pointer and
// is read-only once published.
type Pipeline struct {
	mu       sync.Mutex
	state    State
	stages   []Middleware
	compiled atomic.Pointer[CompiledChain]
}

// NewPipeline creates an empty pipeline in the Building state.
func NewPipeline() *Pipeline {
	return &Pipeline{state: StateBuilding}
}

// Register appends a middleware to the registry. Order of registration is the
// order of execution on the way in; duplicates are permitted. Registering
// after Freeze fails with a LifecycleError. Registering after a Build moves
// the pipeline back to Building: the existing chain keeps serving until an
// explicit rebuild captures the new contents.
func (p *Pipeline) Register(m Middleware) error {
	if m == nil {
		panic("chain: nil middleware")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateFrozen {
		return &LifecycleError{Op: "register", State: p.state}
	}
	p.stages = append(p.stages, m)
	p.state = StateBuilding
	return nil
}

// Snapshot returns a copy of the registered middleware in registration order.
// The compiler consumes snapshots, never the live slice, so registration
// during an in-progress build cannot affect it.
func (p *Pipeline) Snapshot() []Middleware {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Middleware, len(p.stages))
	copy(out, p.stages)
	return out
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Build compiles a snapshot of the registry around the terminal handler and
// publishes the result, fully replacing any previous chain (last build wins).
// It may be called multiple times during setup; after Freeze it fails with a
// LifecycleError.
func (p *Pipeline) Build(terminal Handler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateFrozen {
		return &LifecycleError{Op: "build", State: p.state}
	}
	p.compiled.Store(Compile(p.stages, terminal))
	p.state = StateCompiled
	return nil
}

// Freeze makes the current compiled chain final. It requires a prior Build
// whose chain is still current, happens once, and is irreversible: after
// Freeze the registry is never read again by the serving path.
func (p *Pipeline) Freeze() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateCompiled {
		return &LifecycleError{Op: "freeze", State: p.state}
	}
	p.state = StateFrozen
	return nil
}

// Chain returns the current compiled chain, or nil if none has been built.
func (p *Pipeline) Chain() *CompiledChain {
	return p.compiled.Load()
}

// Dispatch runs one traversal of the current compiled chain for the given
// request. It is valid in the Compiled state (test harnesses build without
// freezing) and in Frozen; in Building it fails with a LifecycleError. A
// panic anywhere in the traversal is recovered and returned as a *PanicError
// so a single request's failure never takes down the process or other
// in-flight requests.
func (p *Pipeline) Dispatch(req *web.Request) (resp *web.Response, err error) {
	if st := p.State(); st == StateBuilding {
		return nil, &LifecycleError{Op: "dispatch", State: st}
	}
	c := p.compiled.Load()
	if c == nil {
		return nil, &LifecycleError{Op: "dispatch", State: StateBuilding}
	}
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return c.Execute(req)
}
