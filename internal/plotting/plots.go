// Package plotting renders the profiling outputs: the score-vs-range
// curve per covariance family and the fitted smooth with its
// uncertainty over the observations. PNG output uses gonum/plot; the
// combined HTML report uses go-echarts.
package plotting

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/gam"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/profiler"
)

// ScoreCurves writes a PNG of the smoothness-selection score against
// the range candidate, one line per family. Infinite cells (failed
// fits) leave gaps rather than being dropped, so curves stay aligned
// with the grid.
func ScoreCurves(path, criterion string, profiles []profiler.FamilyProfile) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s score against effective range", criterion)
	p.X.Label.Text = "Effective range"
	p.Y.Label.Text = criterion + " score"

	for i, fp := range profiles {
		pts := make(plotter.XYs, 0, len(fp.Scores))
		for _, c := range fp.Scores {
			if math.IsInf(c.Score, 0) || math.IsNaN(c.Score) {
				continue
			}
			pts = append(pts, plotter.XY{X: c.Range, Y: c.Score})
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("score line for %s: %w", fp.Family.Name(), err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(fp.Family.Name(), line)

		if fp.Err == nil {
			marker, err := plotter.NewScatter(plotter.XYs{{X: fp.BestRange, Y: fp.BestScore}})
			if err != nil {
				return err
			}
			marker.GlyphStyle.Color = plotutil.Color(i)
			marker.GlyphStyle.Radius = vg.Points(3)
			p.Add(marker)
		}
	}

	p.Legend.Top = true
	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save score curves: %w", err)
	}
	return nil
}

// FittedSeries writes a PNG of the observations with the fitted smooth:
// posterior simulation draws as thin grey spaghetti, a +-2 SE ribbon,
// and the mean on top. draws may be nil to omit the spaghetti.
func FittedSeries(path, title string, obs gam.Observations, xs, mean, se []float64, draws *mat.Dense) error {
	if len(xs) != len(mean) || len(xs) != len(se) {
		return fmt.Errorf("evaluation points, mean and se lengths disagree: %d, %d, %d",
			len(xs), len(mean), len(se))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Covariate"
	p.Y.Label.Text = "Response"

	// Ribbon first so everything else draws over it: upper bound left
	// to right, then lower bound back.
	ribbon := make(plotter.XYs, 0, 2*len(xs))
	for i := range xs {
		ribbon = append(ribbon, plotter.XY{X: xs[i], Y: mean[i] + 2*se[i]})
	}
	for i := len(xs) - 1; i >= 0; i-- {
		ribbon = append(ribbon, plotter.XY{X: xs[i], Y: mean[i] - 2*se[i]})
	}
	poly, err := plotter.NewPolygon(ribbon)
	if err != nil {
		return fmt.Errorf("confidence ribbon: %w", err)
	}
	poly.Color = color.NRGBA{R: 120, G: 160, B: 220, A: 70}
	poly.LineStyle.Width = 0
	p.Add(poly)

	if draws != nil {
		nDraws, cols := draws.Dims()
		if cols != len(xs) {
			return fmt.Errorf("draw matrix has %d columns for %d evaluation points", cols, len(xs))
		}
		for d := 0; d < nDraws; d++ {
			pts := make(plotter.XYs, len(xs))
			for j := range xs {
				pts[j] = plotter.XY{X: xs[j], Y: draws.At(d, j)}
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return err
			}
			line.Color = color.NRGBA{R: 130, G: 130, B: 130, A: 60}
			line.Width = vg.Points(0.5)
			p.Add(line)
		}
	}

	meanPts := make(plotter.XYs, len(xs))
	for i := range xs {
		meanPts[i] = plotter.XY{X: xs[i], Y: mean[i]}
	}
	meanLine, err := plotter.NewLine(meanPts)
	if err != nil {
		return err
	}
	meanLine.Color = plotutil.Color(0)
	meanLine.Width = vg.Points(2)
	p.Add(meanLine)
	p.Legend.Add("fitted mean", meanLine)

	obsPts := make(plotter.XYs, obs.Len())
	for i := 0; i < obs.Len(); i++ {
		obsPts[i] = plotter.XY{X: obs.X[i], Y: obs.Y[i]}
	}
	scatter, err := plotter.NewScatter(obsPts)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	scatter.GlyphStyle.Color = color.NRGBA{A: 255}
	p.Add(scatter)
	p.Legend.Add("observations", scatter)

	p.Legend.Top = true
	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save fitted series: %w", err)
	}
	return nil
}
