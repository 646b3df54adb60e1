package gam

import "fmt"

// FitConvergenceError reports that the smoothing-parameter search
// failed to reach a stable solution: every candidate produced a
// non-finite criterion, the normal equations were singular, or the
// evaluation cap was exhausted without a finite optimum.
type FitConvergenceError struct {
	Reason string
}

func (e *FitConvergenceError) Error() string {
	return fmt.Sprintf("penalized fit did not converge: %s", e.Reason)
}
