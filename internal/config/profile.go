package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ProfileConfig is the root configuration for a profiling run. All
// fields are pointers so a partial JSON file only overrides what it
// names; the Get* accessors supply defaults for anything omitted.
type ProfileConfig struct {
	// Range grid
	GridMin   *float64 `json:"grid_min,omitempty"`
	GridMax   *float64 `json:"grid_max,omitempty"`
	GridCount *int     `json:"grid_count,omitempty"`

	// Covariance families to profile, by name ("matern12", "matern32",
	// "matern52", "se").
	Families []string `json:"families,omitempty"`

	// Fit params
	BasisDim  *int    `json:"basis_dim,omitempty"`
	Criterion *string `json:"criterion,omitempty"` // "REML" or "GCV"
	FitEvals  *int    `json:"fit_evals,omitempty"`

	// Sweep params
	Workers  *int    `json:"workers,omitempty"`
	TieBreak *string `json:"tie_break,omitempty"` // "first" or "last"

	// Data params
	EpsilonWeight *float64 `json:"epsilon_weight,omitempty"`

	// Downstream params
	SimulationDraws *int `json:"simulation_draws,omitempty"`
	PredictPoints   *int `json:"predict_points,omitempty"`
}

// Default values for anything a config file leaves unset. The grid
// covers the range sweep used for both analysis datasets.
const (
	DefaultGridMin         = 10.0
	DefaultGridMax         = 500.0
	DefaultGridCount       = 50
	DefaultBasisDim        = 30
	DefaultCriterion       = "REML"
	DefaultTieBreak        = "first"
	DefaultSimulationDraws = 50
	DefaultPredictPoints   = 200
)

// DefaultFamilies are profiled when the config names none.
var DefaultFamilies = []string{"matern32", "se"}

// EmptyProfileConfig returns a config with every field unset.
func EmptyProfileConfig() *ProfileConfig {
	return &ProfileConfig{}
}

// LoadProfileConfig loads a ProfileConfig from a JSON file. The path
// must have a .json extension and stay under the size cap. Omitted
// fields keep their defaults, so partial configs are safe.
func LoadProfileConfig(path string) (*ProfileConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyProfileConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations that would make the sweep undefined.
func (c *ProfileConfig) Validate() error {
	if c.GridMin != nil && *c.GridMin <= 0 {
		return fmt.Errorf("grid_min must be positive, got %v", *c.GridMin)
	}
	if c.GridMin != nil && c.GridMax != nil && *c.GridMax < *c.GridMin {
		return fmt.Errorf("grid_max %v below grid_min %v", *c.GridMax, *c.GridMin)
	}
	if c.GridCount != nil && *c.GridCount < 1 {
		return fmt.Errorf("grid_count must be at least 1, got %d", *c.GridCount)
	}
	if c.BasisDim != nil && *c.BasisDim < 2 {
		return fmt.Errorf("basis_dim must be at least 2, got %d", *c.BasisDim)
	}
	if c.Criterion != nil && *c.Criterion != "REML" && *c.Criterion != "GCV" {
		return fmt.Errorf("criterion must be REML or GCV, got %q", *c.Criterion)
	}
	if c.TieBreak != nil && *c.TieBreak != "first" && *c.TieBreak != "last" {
		return fmt.Errorf("tie_break must be first or last, got %q", *c.TieBreak)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.EpsilonWeight != nil && *c.EpsilonWeight < 0 {
		return fmt.Errorf("epsilon_weight must be non-negative, got %v", *c.EpsilonWeight)
	}
	if c.SimulationDraws != nil && *c.SimulationDraws < 0 {
		return fmt.Errorf("simulation_draws must be non-negative, got %d", *c.SimulationDraws)
	}
	if c.PredictPoints != nil && *c.PredictPoints < 2 {
		return fmt.Errorf("predict_points must be at least 2, got %d", *c.PredictPoints)
	}
	return nil
}

func (c *ProfileConfig) GetGridMin() float64 {
	if c.GridMin != nil {
		return *c.GridMin
	}
	return DefaultGridMin
}

func (c *ProfileConfig) GetGridMax() float64 {
	if c.GridMax != nil {
		return *c.GridMax
	}
	return DefaultGridMax
}

func (c *ProfileConfig) GetGridCount() int {
	if c.GridCount != nil {
		return *c.GridCount
	}
	return DefaultGridCount
}

func (c *ProfileConfig) GetFamilies() []string {
	if len(c.Families) > 0 {
		return c.Families
	}
	return DefaultFamilies
}

func (c *ProfileConfig) GetBasisDim() int {
	if c.BasisDim != nil {
		return *c.BasisDim
	}
	return DefaultBasisDim
}

func (c *ProfileConfig) GetCriterion() string {
	if c.Criterion != nil {
		return *c.Criterion
	}
	return DefaultCriterion
}

func (c *ProfileConfig) GetFitEvals() int {
	if c.FitEvals != nil {
		return *c.FitEvals
	}
	return 0 // fitter default
}

func (c *ProfileConfig) GetWorkers() int {
	if c.Workers != nil {
		return *c.Workers
	}
	return 0 // one per CPU
}

func (c *ProfileConfig) GetTieBreak() string {
	if c.TieBreak != nil {
		return *c.TieBreak
	}
	return DefaultTieBreak
}

func (c *ProfileConfig) GetEpsilonWeight() float64 {
	if c.EpsilonWeight != nil {
		return *c.EpsilonWeight
	}
	return 0 // reject degenerate weights
}

func (c *ProfileConfig) GetSimulationDraws() int {
	if c.SimulationDraws != nil {
		return *c.SimulationDraws
	}
	return DefaultSimulationDraws
}

func (c *ProfileConfig) GetPredictPoints() int {
	if c.PredictPoints != nil {
		return *c.PredictPoints
	}
	return DefaultPredictPoints
}
