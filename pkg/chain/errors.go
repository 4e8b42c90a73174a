package chain

import (
	"errors"
	"fmt"
)

// ErrNextCalledTwice is returned when a middleware invokes its continuation
// more than once within a single activation. Retry-style behavior is not
// supported by the chain; a middleware needing retries must wrap the work it
// retries itself rather than re-entering downstream stages.
var ErrNextCalledTwice = errors.New("chain: next called more than once in a single activation")

// LifecycleError reports an operation attempted in an incompatible lifecycle
// state, such as registering middleware after the pipeline has been frozen or
// dispatching before any chain has been built.
type LifecycleError struct {
	Op    string // the operation attempted ("register", "build", "freeze", "dispatch")
	State State  // the state the pipeline was in
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("chain: %s not allowed in state %s", e.Op, e.State)
}

// PanicError wraps a panic recovered during chain traversal so it can
// propagate as an ordinary error to the dispatcher's backstop.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("chain: panic during dispatch: %v", e.Value)
}
