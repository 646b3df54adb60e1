package main

import (
	"path/filepath"
	"testing"
)

func TestDatasets(t *testing.T) {
	ds := datasets("testdir")
	if len(ds) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(ds))
	}

	if ds[0].Name != "smallwater" || ds[1].Name != "brayaso" {
		t.Errorf("unexpected dataset names: %s, %s", ds[0].Name, ds[1].Name)
	}
	if got, want := ds[0].Path, filepath.Join("testdir", "small-water.csv"); got != want {
		t.Errorf("small water path = %q, want %q", got, want)
	}

	// Small Water is evenly sampled (no weight column); Braya-So
	// weights each sample by its integration interval.
	if ds[0].Columns.Weight != "" {
		t.Errorf("small water should have no weight column, got %q", ds[0].Columns.Weight)
	}
	if ds[1].Columns.Weight != "sampleInterval" {
		t.Errorf("braya-so weight column = %q, want sampleInterval", ds[1].Columns.Weight)
	}
}
