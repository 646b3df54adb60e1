package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/dataio"
)

// TestEnsureDataFillsMissingFiles covers the fresh-checkout path: an
// empty data directory must end up with both dataset files, loadable
// through the same column mapping the command uses.
func TestEnsureDataFillsMissingFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	if err := ensureData(dir); err != nil {
		t.Fatalf("ensureData: %v", err)
	}

	for _, ds := range datasets(dir) {
		obs, err := dataio.LoadCSV(ds.Path, ds.Columns, dataio.Options{})
		if err != nil {
			t.Fatalf("load %s: %v", ds.Name, err)
		}
		if obs.Len() < 50 {
			t.Errorf("%s: expected a usable series, got %d observations", ds.Name, obs.Len())
		}
		for i, w := range obs.W {
			if w <= 0 {
				t.Fatalf("%s: non-positive weight %v at row %d", ds.Name, w, i)
			}
		}
	}
}

func TestEnsureDataKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small-water.csv")

	own := []byte("Year,d15N\n1990.0,1.5\n")
	if err := os.WriteFile(path, own, 0644); err != nil {
		t.Fatal(err)
	}

	if err := ensureData(dir); err != nil {
		t.Fatalf("ensureData: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(own) {
		t.Error("ensureData must not overwrite a user-supplied file")
	}

	// The other file was missing and must have been generated.
	if _, err := os.Stat(filepath.Join(dir, "braya-so.csv")); err != nil {
		t.Errorf("braya-so.csv not generated: %v", err)
	}
}

func TestEnsureDataIsDeterministic(t *testing.T) {
	a, b := filepath.Join(t.TempDir(), "a"), filepath.Join(t.TempDir(), "b")
	if err := ensureData(a); err != nil {
		t.Fatal(err)
	}
	if err := ensureData(b); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"small-water.csv", "braya-so.csv"} {
		fa, err := os.ReadFile(filepath.Join(a, name))
		if err != nil {
			t.Fatal(err)
		}
		fb, err := os.ReadFile(filepath.Join(b, name))
		if err != nil {
			t.Fatal(err)
		}
		if string(fa) != string(fb) {
			t.Errorf("%s differs between runs; stand-ins must be reproducible", name)
		}
	}
}
