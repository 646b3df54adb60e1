// Package profiler implements the profile-likelihood search over the
// range hyperparameter of Gaussian-process covariance smooths. For each
// (family, range) pair on a fixed candidate grid it runs one penalized
// fit and records the smoothness-selection score; after the sweep it
// picks the score-minimizing range per family and refits once there.
// Sweep fits are discarded so only the per-family winners stay resident.
package profiler

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/covariance"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/gam"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/monitoring"
)

var logf = monitoring.Scoped("profile")

// TieBreak selects which grid candidate wins when several share the
// minimum score. Score surfaces are often flat near the optimum, so
// this is an explicit policy rather than an accident of loop order.
type TieBreak int

const (
	// TieBreakFirst keeps the earliest minimum in grid order (the
	// smallest range for an ascending grid). This is the default.
	TieBreakFirst TieBreak = iota
	// TieBreakLast keeps the latest minimum in grid order.
	TieBreakLast
)

// DefaultBasisDim is the basis dimension used when Config leaves
// BasisDim unset.
const DefaultBasisDim = 30

// Config parameterizes one profiling run.
type Config struct {
	// Families are the covariance families to profile. Must be
	// non-empty.
	Families []covariance.Family

	// Grid is the ordered sequence of candidate range values. Must be
	// non-empty with strictly positive entries. It is consumed as-is;
	// EvenGrid builds the usual evenly spaced version.
	Grid []float64

	// BasisDim is the number of basis functions (knots) per fit.
	// Values below 2 mean DefaultBasisDim; an unguarded small value
	// would otherwise put a knot at every distinct covariate.
	BasisDim int

	// Criterion is the smoothness-selection score recorded per cell.
	Criterion gam.Criterion

	// FitEvals caps criterion evaluations inside each penalized fit.
	// Zero means gam.DefaultMaxEvals.
	FitEvals int

	// Workers is the size of the fit worker pool. Zero means
	// runtime.NumCPU().
	Workers int

	// TieBreak is the argmin tie-break policy.
	TieBreak TieBreak
}

// Cell is one score-table entry: the range candidate and its score.
// Failed fits hold an infinite score so grid alignment is preserved for
// plotting and the cell can never win the argmin.
type Cell struct {
	Range float64
	Score float64
}

// FamilyProfile is the per-family outcome: the full score curve in grid
// order, the selected range, and the model refit at that range. When
// every candidate failed, Err holds *AllCandidatesFailedError and the
// selection fields are undefined.
type FamilyProfile struct {
	Family    covariance.Family
	Scores    []Cell
	BestRange float64
	BestScore float64
	Model     *gam.FittedModel
	Err       error
}

// Result holds one profile per configured family, in family order.
type Result struct {
	Profiles []FamilyProfile
}

// AllCandidatesFailedError reports that every grid candidate for one
// family failed to fit, so no best range exists for it. Other families
// in the same run are unaffected.
type AllCandidatesFailedError struct {
	Family string
}

func (e *AllCandidatesFailedError) Error() string {
	return fmt.Sprintf("family %s: every range candidate failed to fit", e.Family)
}

// EvenGrid returns n evenly spaced range candidates over [min, max]
// inclusive, ascending. n == 1 returns just min (min must equal max is
// not required; a single candidate profiles one point).
func EvenGrid(min, max float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("grid size must be positive, got %d", n)
	}
	if !(min > 0) {
		return nil, fmt.Errorf("grid minimum must be positive, got %v", min)
	}
	if max < min {
		return nil, fmt.Errorf("grid maximum %v below minimum %v", max, min)
	}
	if n == 1 {
		return []float64{min}, nil
	}
	grid := make([]float64, n)
	step := (max - min) / float64(n-1)
	for i := range grid {
		grid[i] = min + float64(i)*step
	}
	return grid, nil
}

// Profile runs the grid sweep and the per-family refit. The sweep is
// parallel over (family, range) cells; each fit reads the shared
// observations and writes one pre-sized table cell. Per-cell fit
// failures score +Inf and the sweep continues; ctx cancellation aborts
// the whole run with no partial result.
func Profile(ctx context.Context, obs gam.Observations, cfg Config) (*Result, error) {
	if err := obs.Validate(); err != nil {
		// Degenerate weights and malformed inputs are setup-time
		// failures; the sweep is not the place to discover them.
		return nil, err
	}
	if len(cfg.Families) == 0 {
		return nil, fmt.Errorf("no covariance families configured")
	}
	if len(cfg.Grid) == 0 {
		return nil, fmt.Errorf("empty range grid")
	}
	for i, r := range cfg.Grid {
		if !(r > 0) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("grid candidate %d is not a positive finite range: %v", i, r)
		}
	}

	basisDim := cfg.BasisDim
	if basisDim < 2 {
		basisDim = DefaultBasisDim
	}
	knots := gam.QuantileKnots(obs.X, basisDim)
	fitCfg := gam.FitConfig{Criterion: cfg.Criterion, MaxEvals: cfg.FitEvals}

	// Pre-sized write-once score table: scores[family][grid cell].
	scores := make([][]float64, len(cfg.Families))
	for fi := range scores {
		scores[fi] = make([]float64, len(cfg.Grid))
	}

	type job struct{ fi, gi int }
	jobs := make(chan job)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				fam := cfg.Families[j.fi]
				spec := gam.BasisSpec{Family: fam, Range: cfg.Grid[j.gi], Knots: knots}
				m, err := gam.Fit(obs, spec, fitCfg)
				if err != nil {
					logf("family=%s range=%v fit failed: %v",
						fam.Name(), cfg.Grid[j.gi], err)
					scores[j.fi][j.gi] = math.Inf(1)
					continue
				}
				if math.IsNaN(m.Score) {
					scores[j.fi][j.gi] = math.Inf(1)
					continue
				}
				// The sweep keeps the score only; the model itself is
				// dropped here and the winner refit after the sweep.
				scores[j.fi][j.gi] = m.Score
			}
		}()
	}

	var cancelled error
dispatch:
	for gi := range cfg.Grid {
		for fi := range cfg.Families {
			select {
			case jobs <- job{fi, gi}:
			case <-ctx.Done():
				cancelled = ctx.Err()
				break dispatch
			}
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}

	result := &Result{Profiles: make([]FamilyProfile, len(cfg.Families))}
	for fi, fam := range cfg.Families {
		p := FamilyProfile{Family: fam, Scores: make([]Cell, len(cfg.Grid))}
		for gi, r := range cfg.Grid {
			p.Scores[gi] = Cell{Range: r, Score: scores[fi][gi]}
		}

		best := pickBest(scores[fi], cfg.TieBreak)
		if best < 0 {
			p.Err = &AllCandidatesFailedError{Family: fam.Name()}
			result.Profiles[fi] = p
			continue
		}
		p.BestRange = cfg.Grid[best]
		p.BestScore = scores[fi][best]

		spec := gam.BasisSpec{Family: fam, Range: p.BestRange, Knots: knots}
		m, err := gam.Fit(obs, spec, fitCfg)
		if err != nil {
			// The sweep scored this cell finite, so a refit failure is
			// unexpected; surface it on the family rather than guessing
			// another range.
			p.Err = fmt.Errorf("refit at selected range %v: %w", p.BestRange, err)
			result.Profiles[fi] = p
			continue
		}
		p.Model = m
		result.Profiles[fi] = p
	}

	return result, nil
}

// pickBest returns the index of the minimum finite score, applying the
// tie-break policy, or -1 when no score is finite.
func pickBest(scores []float64, tb TieBreak) int {
	best := -1
	for i, sc := range scores {
		if math.IsInf(sc, 1) || math.IsNaN(sc) {
			continue
		}
		switch {
		case best < 0, sc < scores[best]:
			best = i
		case sc == scores[best] && tb == TieBreakLast:
			best = i
		}
	}
	return best
}
