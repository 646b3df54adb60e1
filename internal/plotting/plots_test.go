package plotting

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/covariance"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/gam"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/profiler"
)

func testProfiles() []profiler.FamilyProfile {
	return []profiler.FamilyProfile{
		{
			Family: covariance.Matern{Order: covariance.OrderThreeHalves},
			Scores: []profiler.Cell{
				{Range: 10, Score: -2.5},
				{Range: 20, Score: -4.0},
				{Range: 30, Score: -3.1},
			},
			BestRange: 20,
			BestScore: -4.0,
		},
		{
			Family: covariance.SquaredExponential{},
			Scores: []profiler.Cell{
				{Range: 10, Score: -1.0},
				{Range: 20, Score: math.Inf(1)},
				{Range: 30, Score: -2.0},
			},
			BestRange: 30,
			BestScore: -2.0,
		},
	}
}

func testObs() gam.Observations {
	return gam.Observations{
		X: []float64{0, 10, 20, 30, 40},
		Y: []float64{0.1, 0.8, 1.0, 0.7, 0.2},
		W: gam.UnitWeights(5),
	}
}

func TestScoreCurves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.png")

	if err := ScoreCurves(path, "REML", testProfiles()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("score plot is empty")
	}
}

func TestFittedSeries(t *testing.T) {
	xs := []float64{0, 10, 20, 30, 40}
	mean := []float64{0.2, 0.7, 1.0, 0.7, 0.2}
	se := []float64{0.1, 0.05, 0.05, 0.05, 0.1}
	draws := mat.NewDense(3, len(xs), nil)
	for d := 0; d < 3; d++ {
		for j := range xs {
			draws.Set(d, j, mean[j]+0.01*float64(d))
		}
	}

	path := filepath.Join(t.TempDir(), "fitted.png")
	if err := FittedSeries(path, "Small Water", testObs(), xs, mean, se, draws); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("fitted plot missing or empty: %v", err)
	}

	// Nil draws are allowed.
	path2 := filepath.Join(t.TempDir(), "fitted_nodraws.png")
	if err := FittedSeries(path2, "Small Water", testObs(), xs, mean, se, nil); err != nil {
		t.Fatal(err)
	}

	// Mismatched lengths are rejected.
	if err := FittedSeries(path, "bad", testObs(), xs, mean[:2], se, nil); err == nil {
		t.Error("expected error for mismatched mean length")
	}
}

func TestHTMLReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	curves := []FittedCurve{{
		Label: "matern32 fit",
		Xs:    []float64{0, 20, 40},
		Mean:  []float64{0.2, 1.0, 0.2},
		SE:    []float64{0.1, 0.05, 0.1},
	}}

	if err := HTMLReport(path, "smallwater", "REML", testProfiles(), testObs(), curves); err != nil {
		t.Fatal(err)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(body)
	for _, want := range []string{"matern32", "se", "observations"} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing series %q", want)
		}
	}
}
