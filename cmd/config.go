package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ellipsfit/ellipsfit/film"
	"github.com/ellipsfit/ellipsfit/film/archive"
	"github.com/ellipsfit/ellipsfit/film/lm"
	"github.com/ellipsfit/ellipsfit/film/material"
	"github.com/ellipsfit/ellipsfit/film/search"
)

// Window selects the archive rows to invert. Count 0 means every row from Start.
type Window struct {
	Start int `yaml:"start"`
	Count int `yaml:"count"`
}

// WavelengthRange is an inclusive linspace in nanometers.
type WavelengthRange struct {
	Start float64 `yaml:"start"`
	Stop  float64 `yaml:"stop"`
	Count int     `yaml:"count"`
}

// RunConfig is the run configuration file.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type RunConfig struct {
	Seed            int64           `yaml:"seed"`
	Archive         string          `yaml:"archive"`
	OutputDir       string          `yaml:"output_dir"`
	OutputPrefix    string          `yaml:"output_prefix"`
	Window          Window          `yaml:"window"`
	Workers         int             `yaml:"workers"`         // 0 = runtime.NumCPU()
	MaxEvaluations  int             `yaml:"max_evaluations"` // per local fit; 0 = optimizer default
	Layers          int             `yaml:"layers"`
	ThicknessBounds []float64       `yaml:"thickness_bounds"` // nm
	Angles          []float64       `yaml:"angles"`           // degrees
	Wavelengths     WavelengthRange `yaml:"wavelengths"`
	IncidentIndex   float64         `yaml:"incident_index"`
	Substrate       material.Spec   `yaml:"substrate"`
	Materials       []material.Spec `yaml:"materials"`
	Sweep           []search.Policy `yaml:"sweep"`

	baseDir string // directory of the config file; tabulated materials resolve against it
}

// LoadRunConfig reads, defaults, and validates a run configuration.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	cfg, err := ParseRunConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.baseDir = filepath.Dir(path)
	return cfg, nil
}

// ParseRunConfig decodes YAML with strict field checking (typos are errors),
// fills defaults, and validates.
func ParseRunConfig(data []byte) (*RunConfig, error) {
	var cfg RunConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing run config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *RunConfig) applyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.OutputPrefix == "" {
		c.OutputPrefix = "ellipsfit"
	}
	if c.Layers == 0 {
		c.Layers = 1
	}
	if c.IncidentIndex == 0 {
		c.IncidentIndex = 1
	}
	if c.Substrate.Name == "" && c.Substrate.Model == "" {
		c.Substrate.Name = "glass"
	}
	if len(c.Materials) == 0 {
		for _, name := range material.DefaultCatalogNames {
			c.Materials = append(c.Materials, material.Spec{Name: name})
		}
	}
	if len(c.Sweep) == 0 {
		c.Sweep = []search.Policy{{FitType: search.FitSingle, NumStarts: 1}}
	}
	for i := range c.Sweep {
		if c.Sweep[i].FitType == search.FitSingle && c.Sweep[i].NumStarts == 0 {
			c.Sweep[i].NumStarts = 1
		}
	}
}

// Validate checks that all fields in the config are valid.
func (c *RunConfig) Validate() error {
	if c.Layers < 1 {
		return fmt.Errorf("layers must be positive, got %d", c.Layers)
	}
	if len(c.ThicknessBounds) != 2 {
		return fmt.Errorf("thickness_bounds must be [min, max], got %v", c.ThicknessBounds)
	}
	if _, err := film.NewBounds(c.ThicknessBounds[0], c.ThicknessBounds[1]); err != nil {
		return fmt.Errorf("thickness_bounds: %w", err)
	}
	if c.ThicknessBounds[0] < 0 {
		return fmt.Errorf("thickness_bounds must be non-negative, got %v", c.ThicknessBounds)
	}
	if _, err := c.Grid(); err != nil {
		return err
	}
	if c.IncidentIndex < 1 {
		return fmt.Errorf("incident_index must be >= 1, got %f", c.IncidentIndex)
	}
	if c.Window.Start < 0 || c.Window.Count < 0 {
		return fmt.Errorf("window must be non-negative, got start=%d count=%d", c.Window.Start, c.Window.Count)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.MaxEvaluations < 0 {
		return fmt.Errorf("max_evaluations must be non-negative, got %d", c.MaxEvaluations)
	}
	for i, p := range c.Sweep {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("sweep[%d]: %w", i, err)
		}
	}
	return nil
}

// Grid returns the measurement grid.
func (c *RunConfig) Grid() (film.Grid, error) {
	g, err := film.NewGrid(c.Angles, c.Wavelengths.Start, c.Wavelengths.Stop, c.Wavelengths.Count)
	if err != nil {
		return film.Grid{}, fmt.Errorf("grid: %w", err)
	}
	return g, nil
}

// Bounds returns the thickness domain.
func (c *RunConfig) Bounds() film.Bounds {
	return film.Bounds{Min: c.ThicknessBounds[0], Max: c.ThicknessBounds[1]}
}

// Problem builds the shared inversion context: grid, sampled catalog, and media.
func (c *RunConfig) Problem() (*search.Problem, error) {
	g, err := c.Grid()
	if err != nil {
		return nil, err
	}
	cat, err := material.BuildCatalog(g.Wavelengths, c.Materials, c.baseDir)
	if err != nil {
		return nil, err
	}
	model, err := c.Substrate.Build(c.baseDir)
	if err != nil {
		return nil, fmt.Errorf("substrate: %w", err)
	}
	sub, err := material.Sample(model, g.Wavelengths)
	if err != nil {
		return nil, fmt.Errorf("substrate %q: %w", c.Substrate.Name, err)
	}
	p := &search.Problem{
		Grid:      g,
		Catalog:   cat,
		Bounds:    c.Bounds(),
		Layers:    c.Layers,
		Incident:  complex(c.IncidentIndex, 0),
		Substrate: sub,
		LM:        lm.Settings{MaxEvaluations: c.MaxEvaluations},
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Generator returns a synthetic dataset generator over the same problem.
func (c *RunConfig) Generator() (*archive.Generator, error) {
	p, err := c.Problem()
	if err != nil {
		return nil, err
	}
	return &archive.Generator{
		Grid:      p.Grid,
		Catalog:   p.Catalog,
		Bounds:    p.Bounds,
		Layers:    p.Layers,
		Incident:  p.Incident,
		Substrate: p.Substrate,
	}, nil
}

// Schema returns the archive layout for problem p.
func Schema(p *search.Problem) (archive.Schema, error) {
	return archive.NewSchema(p.Grid.NumAngles(), p.Catalog.Len(), p.Layers, p.Grid.NumWavelengths())
}
