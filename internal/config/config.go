// Package config loads the run configuration: where an experiment's grid,
// run output and observation files live, the grid dimensions, and the
// tolerances used by the misfit cross-check.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config describes one assimilation experiment. Fields are pointers so a
// partial JSON file only overrides what it mentions; the Get* accessors
// supply defaults for the rest. Defaults match the 90x40x15 global
// configuration the tutorial experiment uses.
type Config struct {
	// Grid geometry
	NX *int `json:"nx,omitempty"`
	NY *int `json:"ny,omitempty"`
	NZ *int `json:"nz,omitempty"`

	// Paths
	GridDir   *string `json:"grid_dir,omitempty"`
	RunDir    *string `json:"run_dir,omitempty"`
	ModelFile *string `json:"model_file,omitempty"` // modelled surface field (MDS base path)
	ObsFile   *string `json:"obs_file,omitempty"`   // observed surface field
	SigmaFile *string `json:"sigma_file,omitempty"` // observational uncertainty
	PlotDir   *string `json:"plot_dir,omitempty"`

	// Misfit behaviour
	MisfitRelTol   *float64 `json:"misfit_rel_tol,omitempty"`
	CostMultiplier *float64 `json:"cost_multiplier,omitempty"`
	AreaWeight     *bool    `json:"area_weight,omitempty"`
}

// Load reads a Config from a JSON file. Fields omitted from the file keep
// their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	for name, v := range map[string]*int{"nx": c.NX, "ny": c.NY, "nz": c.NZ} {
		if v != nil && *v < 1 {
			return fmt.Errorf("%s must be positive, got %d", name, *v)
		}
	}
	if c.MisfitRelTol != nil && *c.MisfitRelTol < 0 {
		return fmt.Errorf("misfit_rel_tol must be non-negative, got %g", *c.MisfitRelTol)
	}
	if c.CostMultiplier != nil && *c.CostMultiplier <= 0 {
		return fmt.Errorf("cost_multiplier must be positive, got %g", *c.CostMultiplier)
	}
	return nil
}

// GetNX returns the zonal grid size or the default.
func (c *Config) GetNX() int {
	if c.NX == nil {
		return 90
	}
	return *c.NX
}

// GetNY returns the meridional grid size or the default.
func (c *Config) GetNY() int {
	if c.NY == nil {
		return 40
	}
	return *c.NY
}

// GetNZ returns the number of depth levels or the default.
func (c *Config) GetNZ() int {
	if c.NZ == nil {
		return 15
	}
	return *c.NZ
}

// GetGridDir returns the grid directory or the default.
func (c *Config) GetGridDir() string {
	if c.GridDir == nil || *c.GridDir == "" {
		return "grid"
	}
	return *c.GridDir
}

// GetRunDir returns the run directory or the default.
func (c *Config) GetRunDir() string {
	if c.RunDir == nil || *c.RunDir == "" {
		return "run"
	}
	return *c.RunDir
}

// GetModelFile returns the modelled-field base path, or "".
func (c *Config) GetModelFile() string {
	if c.ModelFile == nil {
		return ""
	}
	return *c.ModelFile
}

// GetObsFile returns the observation base path, or "".
func (c *Config) GetObsFile() string {
	if c.ObsFile == nil {
		return ""
	}
	return *c.ObsFile
}

// GetSigmaFile returns the uncertainty base path, or "".
func (c *Config) GetSigmaFile() string {
	if c.SigmaFile == nil {
		return ""
	}
	return *c.SigmaFile
}

// GetPlotDir returns the plot output directory or the default.
func (c *Config) GetPlotDir() string {
	if c.PlotDir == nil || *c.PlotDir == "" {
		return "plots"
	}
	return *c.PlotDir
}

// GetMisfitRelTol returns the cross-check tolerance or the default.
func (c *Config) GetMisfitRelTol() float64 {
	if c.MisfitRelTol == nil {
		return 1e-5
	}
	return *c.MisfitRelTol
}

// GetCostMultiplier returns the misfit multiplier or the default.
func (c *Config) GetCostMultiplier() float64 {
	if c.CostMultiplier == nil {
		return 1
	}
	return *c.CostMultiplier
}

// GetAreaWeight reports whether misfits are area weighted.
func (c *Config) GetAreaWeight() bool {
	if c.AreaWeight == nil {
		return false
	}
	return *c.AreaWeight
}
