package main

import "testing"

// TestFlagDefaults verifies the flags exist with the documented
// defaults before any config merging happens.
func TestFlagDefaults(t *testing.T) {
	if *covariate != "Year" {
		t.Errorf("expected covariate default Year, got %q", *covariate)
	}
	if *criterion != "" {
		t.Errorf("criterion should default to empty (config decides), got %q", *criterion)
	}
	if *workers != 0 {
		t.Errorf("workers should default to 0 (one per CPU), got %d", *workers)
	}
	if *seed != 0 {
		t.Errorf("seed should default to 0 (time-based), got %d", *seed)
	}
}

// TestLoadConfigFlagOverrides mirrors the merge in loadConfig: a flag
// set to a non-zero value must override the config file default.
func TestLoadConfigFlagOverrides(t *testing.T) {
	origMin, origFam := *gridMin, *families
	defer func() { *gridMin = origMin; *families = origFam }()

	*gridMin = 25
	*families = "matern52,se"

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GetGridMin() != 25 {
		t.Errorf("GetGridMin() = %v, want 25", cfg.GetGridMin())
	}
	got := cfg.GetFamilies()
	if len(got) != 2 || got[0] != "matern52" || got[1] != "se" {
		t.Errorf("GetFamilies() = %v, want [matern52 se]", got)
	}
}

// TestLoadConfigRejectsInvalidOverride verifies validation still runs
// after flag merging.
func TestLoadConfigRejectsInvalidOverride(t *testing.T) {
	origMin, origMax := *gridMin, *gridMax
	defer func() { *gridMin = origMin; *gridMax = origMax }()

	*gridMin = 400
	*gridMax = 100

	if _, err := loadConfig(); err == nil {
		t.Error("expected validation error for inverted grid")
	}
}
