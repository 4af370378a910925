package propagator

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNonConvergent indicates the RK loop ran out of steps before reaching the plane.
	ErrNonConvergent = errors.New("propagator: integration did not converge")
)

// PropagationError wraps an error with the state of the integration.
type PropagationError struct {
	Step    int
	Pos     r3.Vec
	Wrapped error
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("step %d at (%.3f, %.3f, %.3f): %v", e.Step, e.Pos.X, e.Pos.Y, e.Pos.Z, e.Wrapped)
}

func (e *PropagationError) Unwrap() error {
	return e.Wrapped
}
