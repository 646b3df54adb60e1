// Package gam implements a penalized regression smoother for a single
// covariate: a Gaussian-process radial basis with a roughness penalty,
// the penalty weight chosen automatically by REML or GCV. It exposes
// the fit/predict/simulate surface the range-parameter profiler drives.
package gam

import (
	"fmt"
	"math"
)

// Observations is an ordered set of (covariate, response, weight)
// triples. Covariate values need not be evenly spaced. Weights must be
// strictly positive; a zero weight makes the penalized fit at that
// point undefined.
type Observations struct {
	X []float64
	Y []float64
	W []float64
}

// Len returns the number of observations.
func (o Observations) Len() int { return len(o.X) }

// DegenerateWeightError reports an observation whose weight would make
// the fit undefined. It is raised during validation, before any grid
// sweep starts.
type DegenerateWeightError struct {
	Index  int
	Weight float64
}

func (e *DegenerateWeightError) Error() string {
	return fmt.Sprintf("observation %d has non-positive weight %v", e.Index, e.Weight)
}

// Validate checks structural invariants: equal-length slices, at least
// one observation, finite values, and strictly positive weights. Weight
// violations are reported as *DegenerateWeightError.
func (o Observations) Validate() error {
	n := len(o.X)
	if n == 0 {
		return fmt.Errorf("empty observation set")
	}
	if len(o.Y) != n || len(o.W) != n {
		return fmt.Errorf("observation slices disagree: %d covariates, %d responses, %d weights",
			n, len(o.Y), len(o.W))
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(o.X[i]) || math.IsInf(o.X[i], 0) {
			return fmt.Errorf("observation %d has non-finite covariate %v", i, o.X[i])
		}
		if math.IsNaN(o.Y[i]) || math.IsInf(o.Y[i], 0) {
			return fmt.Errorf("observation %d has non-finite response %v", i, o.Y[i])
		}
		if !(o.W[i] > 0) || math.IsInf(o.W[i], 0) {
			return &DegenerateWeightError{Index: i, Weight: o.W[i]}
		}
	}
	return nil
}

// UnitWeights returns a weight vector of ones for n observations.
func UnitWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}
