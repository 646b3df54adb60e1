package gam

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Criterion selects the smoothness-selection score minimized over the
// penalty weight lambda. Both are lower-is-better and comparable across
// fits of the same data with the same criterion.
type Criterion int

const (
	// REML scores lambda by the negative restricted log likelihood of
	// the Gaussian model (up to terms constant in lambda and basis).
	REML Criterion = iota
	// GCV scores lambda by generalized cross validation.
	GCV
)

func (c Criterion) String() string {
	switch c {
	case REML:
		return "REML"
	case GCV:
		return "GCV"
	}
	return fmt.Sprintf("Criterion(%d)", int(c))
}

// ParseCriterion maps "REML" or "GCV" (exact, as printed by String) to
// the criterion constant.
func ParseCriterion(s string) (Criterion, error) {
	switch s {
	case "REML":
		return REML, nil
	case "GCV":
		return GCV, nil
	}
	return 0, fmt.Errorf("unknown criterion %q (want REML or GCV)", s)
}

// FitConfig bounds the smoothing-parameter search.
type FitConfig struct {
	Criterion Criterion
	// MaxEvals caps the total number of criterion evaluations across
	// the bracketing scan and the simplex refinement. Zero means
	// DefaultMaxEvals. Exhausting the cap without a finite optimum is a
	// convergence failure, not a hang.
	MaxEvals int
}

// DefaultMaxEvals is the criterion-evaluation cap used when FitConfig
// leaves MaxEvals at zero.
const DefaultMaxEvals = 200

// FittedModel is the result of one penalized fit: the basis it was
// built on, the selected smoothing parameter, coefficients, and the
// criterion score the profiler compares across range candidates.
type FittedModel struct {
	Spec      BasisSpec
	Criterion Criterion

	// Score is the minimized criterion value. Lower is better.
	Score float64

	// Lambda is the selected penalty weight.
	Lambda float64

	// EDF is the effective degrees of freedom, the trace of the
	// influence matrix at the selected lambda.
	EDF float64

	// Scale is the residual variance estimate.
	Scale float64

	// Coef holds the basis coefficients.
	Coef []float64

	// CoefCov is the Bayesian covariance of the coefficients,
	// Scale * (B'WB + lambda*S)^-1. Moderately sized: Dim x Dim.
	CoefCov *mat.SymDense
}

// fitState carries the lambda-independent pieces of the penalized
// weighted least squares problem.
type fitState struct {
	n, k    int
	bw      *mat.Dense    // sqrt(W) B
	yw      *mat.VecDense // sqrt(W) y
	btwb    *mat.SymDense // B'WB
	btwy    *mat.VecDense // B'Wy
	s       *mat.SymDense // penalty
	logdetS float64
}

// lambdaEval is the per-lambda solution of the penalized normal
// equations.
type lambdaEval struct {
	beta    *mat.VecDense
	chol    *mat.Cholesky // factor of B'WB + lambda*S
	edf     float64
	rssW    float64 // weighted residual sum of squares
	betaSb  float64 // beta' S beta
	logdetM float64
}

// Fit performs penalized weighted least squares of the observations on
// the given basis, selecting the penalty weight lambda automatically by
// minimizing cfg.Criterion over log lambda. A search that finds no
// finite criterion value returns *FitConvergenceError.
func Fit(obs Observations, spec BasisSpec, cfg FitConfig) (*FittedModel, error) {
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}

	st, err := newFitState(obs, spec)
	if err != nil {
		return nil, err
	}

	maxEvals := cfg.MaxEvals
	if maxEvals <= 0 {
		maxEvals = DefaultMaxEvals
	}

	evals := 0
	bestLogLam := math.NaN()
	bestScore := math.Inf(1)

	score := func(logLam float64) float64 {
		if evals >= maxEvals {
			return math.MaxFloat64
		}
		evals++
		ev, ok := st.solve(math.Exp(logLam))
		if !ok {
			return math.MaxFloat64
		}
		v := st.criterion(ev, math.Exp(logLam), cfg.Criterion)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.MaxFloat64
		}
		if v < bestScore {
			bestScore = v
			bestLogLam = logLam
		}
		return v
	}

	// Coarse bracketing scan over log lambda, then simplex refinement
	// from the best bracket point. NelderMead in one dimension is a
	// bounded golden-section-like search and never needs a gradient.
	for g := -16.0; g <= 16.0; g += 2 {
		score(g)
	}
	if remaining := maxEvals - evals; remaining > 0 && !math.IsInf(bestScore, 1) {
		problem := optimize.Problem{Func: func(x []float64) float64 { return score(x[0]) }}
		settings := &optimize.Settings{FuncEvaluations: remaining}
		// Errors here only narrow the refinement; the scan already
		// produced a usable bracket point.
		_, _ = optimize.Minimize(problem, []float64{bestLogLam}, settings, &optimize.NelderMead{})
	}

	if math.IsInf(bestScore, 1) || math.IsNaN(bestLogLam) {
		return nil, &FitConvergenceError{
			Reason: fmt.Sprintf("no finite %s score in %d evaluations (family=%s range=%v)",
				cfg.Criterion, evals, spec.Family.Name(), spec.Range),
		}
	}

	lam := math.Exp(bestLogLam)
	ev, ok := st.solve(lam)
	if !ok {
		return nil, &FitConvergenceError{
			Reason: fmt.Sprintf("normal equations singular at selected lambda %v", lam),
		}
	}

	// Residual variance. Guard the denominator: an interpolating fit
	// (edf -> n) leaves no residual degrees of freedom.
	denom := float64(st.n) - ev.edf
	if denom < 1 {
		denom = 1
	}
	scale := ev.rssW / denom

	var vb mat.SymDense
	if err := ev.chol.InverseTo(&vb); err != nil {
		return nil, &FitConvergenceError{
			Reason: fmt.Sprintf("coefficient covariance not computable at lambda %v: %v", lam, err),
		}
	}
	vb.ScaleSym(scale, &vb)

	coef := make([]float64, st.k)
	copy(coef, ev.beta.RawVector().Data)

	return &FittedModel{
		Spec:      spec,
		Criterion: cfg.Criterion,
		Score:     bestScore,
		Lambda:    lam,
		EDF:       ev.edf,
		Scale:     scale,
		Coef:      coef,
		CoefCov:   &vb,
	}, nil
}

func newFitState(obs Observations, spec BasisSpec) (*fitState, error) {
	n := obs.Len()
	k := spec.Dim()

	b := spec.Design(obs.X)
	s := spec.Penalty()

	var cholS mat.Cholesky
	if !cholS.Factorize(s) {
		return nil, &FitConvergenceError{
			Reason: fmt.Sprintf("penalty matrix not positive definite (family=%s range=%v)",
				spec.Family.Name(), spec.Range),
		}
	}

	bw := mat.NewDense(n, k, nil)
	yw := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		sw := math.Sqrt(obs.W[i])
		yw.SetVec(i, sw*obs.Y[i])
		for j := 0; j < k; j++ {
			bw.Set(i, j, sw*b.At(i, j))
		}
	}

	var btb mat.Dense
	btb.Mul(bw.T(), bw)
	btwb := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			btwb.SetSym(i, j, btb.At(i, j))
		}
	}

	btwy := mat.NewVecDense(k, nil)
	btwy.MulVec(bw.T(), yw)

	return &fitState{
		n:       n,
		k:       k,
		bw:      bw,
		yw:      yw,
		btwb:    btwb,
		btwy:    btwy,
		s:       s,
		logdetS: cholS.LogDet(),
	}, nil
}

// solve computes the penalized solution at a fixed lambda. Returns
// ok=false when B'WB + lambda*S is not positive definite.
func (st *fitState) solve(lam float64) (*lambdaEval, bool) {
	if !(lam > 0) || math.IsInf(lam, 0) {
		return nil, false
	}

	m := mat.NewSymDense(st.k, nil)
	for i := 0; i < st.k; i++ {
		for j := i; j < st.k; j++ {
			m.SetSym(i, j, st.btwb.At(i, j)+lam*st.s.At(i, j))
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(m) {
		return nil, false
	}

	beta := mat.NewVecDense(st.k, nil)
	if err := chol.SolveVecTo(beta, st.btwy); err != nil {
		return nil, false
	}

	// EDF = tr((B'WB + lambda*S)^-1 B'WB).
	var t mat.Dense
	if err := chol.SolveTo(&t, st.btwb); err != nil {
		return nil, false
	}

	edf := 0.0
	for i := 0; i < st.k; i++ {
		edf += t.At(i, i)
	}

	fitted := mat.NewVecDense(st.n, nil)
	fitted.MulVec(st.bw, beta)

	rssW := 0.0
	for i := 0; i < st.n; i++ {
		r := st.yw.AtVec(i) - fitted.AtVec(i)
		rssW += r * r
	}

	var sb mat.VecDense
	sb.MulVec(st.s, beta)
	betaSb := mat.Dot(beta, &sb)

	return &lambdaEval{
		beta:    beta,
		chol:    &chol,
		edf:     edf,
		rssW:    rssW,
		betaSb:  betaSb,
		logdetM: chol.LogDet(),
	}, true
}

// criterion evaluates the smoothness-selection score at a solved
// lambda. REML keeps every term that varies with the basis so scores
// stay comparable across range candidates, not just across lambdas.
func (st *fitState) criterion(ev *lambdaEval, lam float64, c Criterion) float64 {
	n := float64(st.n)
	switch c {
	case GCV:
		denom := n - ev.edf
		if denom <= 0 {
			return math.Inf(1)
		}
		return n * ev.rssW / (denom * denom)
	case REML:
		dp := ev.rssW + lam*ev.betaSb
		if dp <= 0 {
			return math.Inf(1)
		}
		logdetLamS := float64(st.k)*math.Log(lam) + st.logdetS
		return 0.5*n*(math.Log(2*math.Pi*dp/n)+1) + 0.5*(ev.logdetM-logdetLamS)
	}
	return math.Inf(1)
}
