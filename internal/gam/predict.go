package gam

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Predict evaluates the fitted smooth at xs, returning the pointwise
// mean and the Bayesian standard error of the mean at each point.
func (m *FittedModel) Predict(xs []float64) (mean, se []float64, err error) {
	if len(xs) == 0 {
		return nil, nil, fmt.Errorf("predict: no evaluation points")
	}
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, nil, fmt.Errorf("predict: non-finite covariate %v at index %d", x, i)
		}
	}

	design := m.Spec.Design(xs)
	beta := mat.NewVecDense(len(m.Coef), append([]float64(nil), m.Coef...))

	mean = make([]float64, len(xs))
	se = make([]float64, len(xs))

	var vbRow mat.VecDense
	for i := range xs {
		row := design.RowView(i)
		mean[i] = mat.Dot(row, beta)

		// se^2 = b' Vb b with Vb the coefficient covariance.
		vbRow.MulVec(m.CoefCov, row)
		v := mat.Dot(row, &vbRow)
		if v < 0 {
			v = 0
		}
		se[i] = math.Sqrt(v)
	}
	return mean, se, nil
}

// Simulate draws nDraws realizations of the fitted smooth evaluated at
// xs, propagating coefficient uncertainty: each draw samples the
// coefficients from their posterior N(Coef, CoefCov) and evaluates the
// resulting curve. The returned matrix is nDraws x len(xs). src may be
// nil for a non-deterministic source.
func (m *FittedModel) Simulate(src rand.Source, nDraws int, xs []float64) (*mat.Dense, error) {
	if nDraws <= 0 {
		return nil, fmt.Errorf("simulate: nDraws must be positive, got %d", nDraws)
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("simulate: no evaluation points")
	}

	normal, ok := distmv.NewNormal(m.Coef, m.CoefCov, src)
	if !ok {
		return nil, fmt.Errorf("simulate: coefficient covariance is not positive definite")
	}

	design := m.Spec.Design(xs)
	draws := mat.NewDense(nDraws, len(xs), nil)

	// betaVec aliases beta, so each Rand refill is visible to MulVec.
	beta := make([]float64, len(m.Coef))
	betaVec := mat.NewVecDense(len(beta), beta)
	out := mat.NewVecDense(len(xs), nil)
	for d := 0; d < nDraws; d++ {
		normal.Rand(beta)
		out.MulVec(design, betaVec)
		for j := 0; j < len(xs); j++ {
			draws.Set(d, j, out.AtVec(j))
		}
	}
	return draws, nil
}
