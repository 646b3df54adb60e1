// Package dataio loads delimited time-series files into observation
// sets for fitting. The two analysis datasets are plain CSV with a
// header row; columns are selected by name so files with extra proxy
// columns load without preprocessing.
package dataio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/gam"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/monitoring"
)

var logf = monitoring.Scoped("dataio")

// Columns names the CSV columns to load. Weight may be empty, in which
// case every observation gets unit weight.
type Columns struct {
	Covariate string
	Response  string
	Weight    string
}

// Options adjusts loading behaviour.
type Options struct {
	// EpsilonWeight, when positive, substitutes non-positive weights
	// with this value instead of failing the load. A zero weight makes
	// the penalized fit undefined, so the only alternatives are
	// rejection or substitution.
	EpsilonWeight float64

	// Comma overrides the field delimiter. Zero means ','.
	Comma rune
}

// LoadCSV reads the file once and returns the observation set in file
// order. Weight violations surface as *gam.DegenerateWeightError here,
// at load time, unless Options.EpsilonWeight is set.
func LoadCSV(path string, cols Columns, opts Options) (gam.Observations, error) {
	var obs gam.Observations

	if cols.Covariate == "" || cols.Response == "" {
		return obs, fmt.Errorf("covariate and response column names are required")
	}

	f, err := os.Open(path)
	if err != nil {
		return obs, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	if opts.Comma != 0 {
		r.Comma = opts.Comma
	}

	header, err := r.Read()
	if err != nil {
		return obs, fmt.Errorf("read header of %s: %w", path, err)
	}

	xi, err := columnIndex(header, cols.Covariate)
	if err != nil {
		return obs, fmt.Errorf("%s: %w", path, err)
	}
	yi, err := columnIndex(header, cols.Response)
	if err != nil {
		return obs, fmt.Errorf("%s: %w", path, err)
	}
	wi := -1
	if cols.Weight != "" {
		if wi, err = columnIndex(header, cols.Weight); err != nil {
			return obs, fmt.Errorf("%s: %w", path, err)
		}
	}

	row := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return obs, fmt.Errorf("read %s row %d: %w", path, row+2, err)
		}
		if len(record) == 1 && record[0] == "" {
			continue
		}

		x, err := parseField(record, xi, row, cols.Covariate)
		if err != nil {
			return obs, err
		}
		y, err := parseField(record, yi, row, cols.Response)
		if err != nil {
			return obs, err
		}
		w := 1.0
		if wi >= 0 {
			if w, err = parseField(record, wi, row, cols.Weight); err != nil {
				return obs, err
			}
		}

		obs.X = append(obs.X, x)
		obs.Y = append(obs.Y, y)
		obs.W = append(obs.W, w)
		row++
	}

	if row == 0 {
		return obs, fmt.Errorf("no data rows in %s", path)
	}

	if opts.EpsilonWeight > 0 {
		for i, w := range obs.W {
			if w <= 0 {
				logf("%s row %d weight %v substituted with %v",
					path, i+2, w, opts.EpsilonWeight)
				obs.W[i] = opts.EpsilonWeight
			}
		}
	}

	if err := obs.Validate(); err != nil {
		return gam.Observations{}, fmt.Errorf("%s: %w", path, err)
	}
	return obs, nil
}

func columnIndex(header []string, name string) (int, error) {
	for i, h := range header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %q not found in header %v", name, header)
}

func parseField(record []string, idx, row int, name string) (float64, error) {
	if idx >= len(record) {
		return 0, fmt.Errorf("row %d: missing column %q", row+2, name)
	}
	v, err := strconv.ParseFloat(record[idx], 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: parse %s (%q): %w", row+2, name, record[idx], err)
	}
	return v, nil
}
