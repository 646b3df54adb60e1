package dataio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/gam"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/monitoring"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "core.csv", `Year,d15N,Depth,SampleWeight
-100,4.1,0.5,1.0
-50,4.3,1.5,0.8
0,4.0,2.5,1.2
`)

	obs, err := LoadCSV(path, Columns{Covariate: "Year", Response: "d15N", Weight: "SampleWeight"}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	want := gam.Observations{
		X: []float64{-100, -50, 0},
		Y: []float64{4.1, 4.3, 4.0},
		W: []float64{1.0, 0.8, 1.2},
	}
	if diff := cmp.Diff(want, obs); diff != "" {
		t.Errorf("observations mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCSVDefaultsUnitWeights(t *testing.T) {
	path := writeFile(t, "nw.csv", "Year,UK37\n10,0.2\n20,0.3\n")

	obs, err := LoadCSV(path, Columns{Covariate: "Year", Response: "UK37"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{1, 1}, obs.W); diff != "" {
		t.Errorf("weights mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCSVRejectsZeroWeight(t *testing.T) {
	path := writeFile(t, "zw.csv", "Year,d15N,w\n10,4.1,1\n20,4.2,0\n")

	_, err := LoadCSV(path, Columns{Covariate: "Year", Response: "d15N", Weight: "w"}, Options{})
	var dw *gam.DegenerateWeightError
	if !errors.As(err, &dw) {
		t.Fatalf("expected DegenerateWeightError, got %v", err)
	}
	if dw.Index != 1 {
		t.Errorf("expected index 1, got %d", dw.Index)
	}
}

func TestLoadCSVEpsilonSubstitution(t *testing.T) {
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(nil)

	path := writeFile(t, "eps.csv", "Year,d15N,w\n10,4.1,1\n20,4.2,0\n30,4.3,-2\n")

	obs, err := LoadCSV(path, Columns{Covariate: "Year", Response: "d15N", Weight: "w"},
		Options{EpsilonWeight: 1e-6})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{1, 1e-6, 1e-6}, obs.W); diff != "" {
		t.Errorf("weights mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCSVErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		cols Columns
	}{
		{"missing column", "a,b\n1,2\n", Columns{Covariate: "Year", Response: "b"}},
		{"unparseable value", "Year,d15N\n10,abc\n", Columns{Covariate: "Year", Response: "d15N"}},
		{"no data rows", "Year,d15N\n", Columns{Covariate: "Year", Response: "d15N"}},
		{"unnamed columns", "Year,d15N\n1,2\n", Columns{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "bad.csv", tc.body)
			if _, err := LoadCSV(path, tc.cols, Options{}); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"),
		Columns{Covariate: "x", Response: "y"}, Options{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadCSVCustomDelimiter(t *testing.T) {
	path := writeFile(t, "tab.tsv", "Year\td15N\n10\t4.5\n")

	obs, err := LoadCSV(path, Columns{Covariate: "Year", Response: "d15N"}, Options{Comma: '\t'})
	if err != nil {
		t.Fatal(err)
	}
	if obs.Len() != 1 || obs.Y[0] != 4.5 {
		t.Errorf("unexpected observations: %+v", obs)
	}
}
