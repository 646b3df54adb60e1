package gam

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/covariance"
)

// penaltyRidge is added to the diagonal of the knot correlation matrix
// so its Cholesky factorization stays stable at long ranges, where the
// matrix approaches singularity.
const penaltyRidge = 1e-8

// BasisSpec describes a radial Gaussian-process basis for one covariate:
// a correlation family, its range (effective correlation length), and
// the knot locations the basis functions are centred on.
type BasisSpec struct {
	Family covariance.Family
	Range  float64
	Knots  []float64
}

// Dim returns the number of basis functions.
func (b BasisSpec) Dim() int { return len(b.Knots) }

// Design evaluates the basis at xs, returning the len(xs) x Dim design
// matrix with entries Corr(|x_i - knot_j|, Range).
func (b BasisSpec) Design(xs []float64) *mat.Dense {
	n, k := len(xs), len(b.Knots)
	d := mat.NewDense(n, k, nil)
	for i, x := range xs {
		for j, kn := range b.Knots {
			d.Set(i, j, b.Family.Corr(math.Abs(x-kn), b.Range))
		}
	}
	return d
}

// Penalty returns the Dim x Dim roughness penalty: the knot-knot
// correlation matrix with a small ridge on the diagonal. Under the GP
// view this is the prior precision contribution for the basis
// coefficients, so "wiggly" functions under the chosen family are
// penalized more.
func (b BasisSpec) Penalty() *mat.SymDense {
	k := len(b.Knots)
	s := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			c := b.Family.Corr(math.Abs(b.Knots[i]-b.Knots[j]), b.Range)
			if i == j {
				c += penaltyRidge
			}
			s.SetSym(i, j, c)
		}
	}
	return s
}

func (b BasisSpec) validate() error {
	if b.Family == nil {
		return fmt.Errorf("basis has no covariance family")
	}
	if !(b.Range > 0) {
		return fmt.Errorf("basis range must be positive, got %v", b.Range)
	}
	if len(b.Knots) == 0 {
		return fmt.Errorf("basis has no knots")
	}
	return nil
}

// QuantileKnots places k knots at evenly spaced quantiles of the
// covariate values, so knot density follows sampling density in
// unevenly sampled series. If k meets or exceeds the number of distinct
// values, or k < 2 (too few quantiles to span the range), the distinct
// values themselves are returned; callers wanting a bounded basis must
// pass a usable k.
func QuantileKnots(xs []float64, k int) []float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	uniq := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	if k >= len(uniq) || k < 2 {
		return append([]float64(nil), uniq...)
	}

	knots := make([]float64, 0, k)
	for j := 0; j < k; j++ {
		p := float64(j) / float64(k-1)
		q := stat.Quantile(p, stat.Empirical, uniq, nil)
		if len(knots) == 0 || q != knots[len(knots)-1] {
			knots = append(knots, q)
		}
	}
	return knots
}
