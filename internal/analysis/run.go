// Package analysis wires the full workflow for one dataset: load the
// series, profile the range grid across the configured families, refit
// the winners, evaluate predictions and posterior draws, and hand the
// results to the persistence and plotting layers.
package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/config"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/covariance"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/dataio"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/gam"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/monitoring"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/plotting"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/profiledb"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/profiler"
)

var logf = monitoring.Scoped("analysis")

// Dataset names one input series and the columns to read from it.
type Dataset struct {
	Name    string
	Path    string
	Columns dataio.Columns
}

// Runner executes the workflow with shared settings. DB and PlotDir are
// optional; leaving either unset skips that output.
type Runner struct {
	Config  *config.ProfileConfig
	DB      *profiledb.DB
	PlotDir string
	// Seed drives the posterior simulation; zero means time-based.
	Seed uint64
}

// Summary is what one dataset run produced.
type Summary struct {
	Dataset string
	RunID   string
	Result  *profiler.Result
	Grid    []float64
}

// Run executes the whole workflow for one dataset. Families whose every
// candidate failed are reported in the summary (their profiles carry
// the error) but do not fail the run; only setup errors and full-run
// failures do.
func (r *Runner) Run(ctx context.Context, ds Dataset) (*Summary, error) {
	cfg := r.Config
	if cfg == nil {
		cfg = config.EmptyProfileConfig()
	}

	obs, err := dataio.LoadCSV(ds.Path, ds.Columns, dataio.Options{
		EpsilonWeight: cfg.GetEpsilonWeight(),
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ds.Name, err)
	}
	logf("%s loaded %d observations from %s", ds.Name, obs.Len(), ds.Path)

	families := make([]covariance.Family, 0, len(cfg.GetFamilies()))
	for _, name := range cfg.GetFamilies() {
		fam, err := covariance.Parse(name)
		if err != nil {
			return nil, err
		}
		families = append(families, fam)
	}

	criterion, err := gam.ParseCriterion(cfg.GetCriterion())
	if err != nil {
		return nil, err
	}

	grid, err := profiler.EvenGrid(cfg.GetGridMin(), cfg.GetGridMax(), cfg.GetGridCount())
	if err != nil {
		return nil, err
	}

	tieBreak := profiler.TieBreakFirst
	if cfg.GetTieBreak() == "last" {
		tieBreak = profiler.TieBreakLast
	}

	start := time.Now()
	res, err := profiler.Profile(ctx, obs, profiler.Config{
		Families:  families,
		Grid:      grid,
		BasisDim:  cfg.GetBasisDim(),
		Criterion: criterion,
		FitEvals:  cfg.GetFitEvals(),
		Workers:   cfg.GetWorkers(),
		TieBreak:  tieBreak,
	})
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", ds.Name, err)
	}
	logf("%s swept %d cells in %v",
		ds.Name, len(grid)*len(families), time.Since(start).Round(time.Millisecond))

	for _, p := range res.Profiles {
		if p.Err != nil {
			logf("%s family %s: %v", ds.Name, p.Family.Name(), p.Err)
			continue
		}
		logf("%s family %s best range %g (score %.4f, edf %.2f)",
			ds.Name, p.Family.Name(), p.BestRange, p.BestScore, p.Model.EDF)
	}

	summary := &Summary{Dataset: ds.Name, Result: res, Grid: grid}

	if r.DB != nil {
		runID, err := r.DB.RecordRun(ctx, profiledb.RunMeta{
			Dataset:   ds.Name,
			Criterion: criterion.String(),
			GridMin:   grid[0],
			GridMax:   grid[len(grid)-1],
			GridCount: len(grid),
			BasisDim:  cfg.GetBasisDim(),
		}, res)
		if err != nil {
			return nil, fmt.Errorf("record run for %s: %w", ds.Name, err)
		}
		summary.RunID = runID
	}

	if r.PlotDir != "" {
		if err := r.plot(ds, obs, res, criterion.String(), cfg); err != nil {
			return nil, err
		}
	}

	return summary, nil
}

func (r *Runner) plot(ds Dataset, obs gam.Observations, res *profiler.Result,
	criterion string, cfg *config.ProfileConfig) error {

	if err := os.MkdirAll(r.PlotDir, 0755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}

	scorePath := filepath.Join(r.PlotDir, ds.Name+"_scores.png")
	if err := plotting.ScoreCurves(scorePath, criterion, res.Profiles); err != nil {
		return err
	}

	xs := evalPoints(obs, cfg.GetPredictPoints())
	var curves []plotting.FittedCurve

	seed := r.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	for _, p := range res.Profiles {
		if p.Err != nil || p.Model == nil {
			continue
		}
		mean, se, err := p.Model.Predict(xs)
		if err != nil {
			return fmt.Errorf("predict %s/%s: %w", ds.Name, p.Family.Name(), err)
		}

		var draws *mat.Dense
		if n := cfg.GetSimulationDraws(); n > 0 {
			draws, err = p.Model.Simulate(rand.NewSource(seed), n, xs)
			if err != nil {
				return fmt.Errorf("simulate %s/%s: %w", ds.Name, p.Family.Name(), err)
			}
		}

		fitPath := filepath.Join(r.PlotDir, fmt.Sprintf("%s_%s_fit.png", ds.Name, p.Family.Name()))
		title := fmt.Sprintf("%s: %s smooth, range %g", ds.Name, p.Family.Name(), p.BestRange)
		if err := plotting.FittedSeries(fitPath, title, obs, xs, mean, se, draws); err != nil {
			return err
		}

		curves = append(curves, plotting.FittedCurve{
			Label: fmt.Sprintf("%s (range %g)", p.Family.Name(), p.BestRange),
			Xs:    xs,
			Mean:  mean,
			SE:    se,
		})
	}

	reportPath := filepath.Join(r.PlotDir, ds.Name+"_report.html")
	return plotting.HTMLReport(reportPath, ds.Name, criterion, res.Profiles, obs, curves)
}

// evalPoints spans the observed covariate with n evenly spaced
// prediction points.
func evalPoints(obs gam.Observations, n int) []float64 {
	min, max := obs.X[0], obs.X[0]
	for _, x := range obs.X {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	if n < 2 {
		n = 2
	}
	xs := make([]float64, n)
	step := (max - min) / float64(n-1)
	for i := range xs {
		xs[i] = min + float64(i)*step
	}
	return xs
}
