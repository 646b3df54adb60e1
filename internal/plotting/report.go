package plotting

import (
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/gam"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/profiler"
)

// FittedCurve is one fitted smooth for the HTML report.
type FittedCurve struct {
	Label string
	Xs    []float64
	Mean  []float64
	SE    []float64
}

// HTMLReport writes a single self-contained page with the score curves
// and the fitted smooths, one interactive chart each.
func HTMLReport(path, dataset, criterion string, profiles []profiler.FamilyProfile,
	obs gam.Observations, curves []FittedCurve) error {

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Range profile: %s", dataset)

	page.AddCharts(scoreChart(dataset, criterion, profiles))
	if len(curves) > 0 {
		page.AddCharts(fittedChart(dataset, obs, curves))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func scoreChart(dataset, criterion string, profiles []profiler.FamilyProfile) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s profile over effective range", criterion),
			Subtitle: "dataset: " + dataset,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "effective range"}),
		charts.WithYAxisOpts(opts.YAxis{Name: criterion, Scale: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	if len(profiles) == 0 {
		return line
	}

	xs := make([]string, len(profiles[0].Scores))
	for i, c := range profiles[0].Scores {
		xs[i] = fmt.Sprintf("%g", c.Range)
	}
	line.SetXAxis(xs)

	for _, fp := range profiles {
		data := make([]opts.LineData, len(fp.Scores))
		for i, c := range fp.Scores {
			if math.IsInf(c.Score, 0) || math.IsNaN(c.Score) {
				// Gap, not a dropped point: keeps the grid alignment.
				data[i] = opts.LineData{Value: "-"}
				continue
			}
			data[i] = opts.LineData{Value: c.Score}
		}
		line.AddSeries(fp.Family.Name(), data)
	}
	return line
}

func fittedChart(dataset string, obs gam.Observations, curves []FittedCurve) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Fitted trends",
			Subtitle: "dataset: " + dataset,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "covariate", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "response", Scale: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	obsData := make([]opts.ScatterData, obs.Len())
	for i := 0; i < obs.Len(); i++ {
		obsData[i] = opts.ScatterData{Value: []interface{}{obs.X[i], obs.Y[i]}, SymbolSize: 4}
	}
	scatter.AddSeries("observations", obsData)

	for _, c := range curves {
		lineData := make([]opts.LineData, len(c.Xs))
		for i := range c.Xs {
			lineData[i] = opts.LineData{Value: []interface{}{c.Xs[i], c.Mean[i]}}
		}
		trend := charts.NewLine()
		trend.AddSeries(c.Label, lineData, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		scatter.Overlap(trend)
	}
	return scatter
}
