package analysis

import (
	"errors"
	"fmt"
)

var (
	ErrSingularJacobian = errors.New("singular jacobian")
	ErrNonConvergence   = errors.New("newton-raphson did not converge")
	ErrInitialGuess     = errors.New("initial guess does not match state vector")
)

// ConvergenceError carries the solver state at the point it gave up.
type ConvergenceError struct {
	Iterations int
	LastError  float64
	X          []float64
	Diverged   bool
}

func (e *ConvergenceError) Error() string {
	if e.Diverged {
		return fmt.Sprintf("%v: iterate diverged after %d iterations", ErrNonConvergence, e.Iterations)
	}
	return fmt.Sprintf("%v: error %g after %d iterations", ErrNonConvergence, e.LastError, e.Iterations)
}

func (e *ConvergenceError) Unwrap() error { return ErrNonConvergence }
