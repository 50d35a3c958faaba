// Package search implements the inversion engine: the spectral residual, a local
// Levenberg–Marquardt fit inside one materials subspace, and the randomized global
// search over every subspace of the catalog.
package search

import (
	"fmt"
	"math"

	"github.com/ellipsfit/ellipsfit/film"
	"github.com/ellipsfit/ellipsfit/film/lm"
	"github.com/ellipsfit/ellipsfit/film/material"
	"github.com/ellipsfit/ellipsfit/film/optics"
)

// Problem is the read-only context shared by every search in a run: the grid, the
// catalog, the ambient and substrate media, and the thickness domain.
// Safe for concurrent use once constructed.
type Problem struct {
	Grid      film.Grid
	Catalog   *material.Catalog
	Bounds    film.Bounds
	Layers    int
	Incident  complex128
	Substrate []complex128
	LM        lm.Settings
}

// Validate checks that the problem is internally consistent.
func (p *Problem) Validate() error {
	if p.Catalog == nil || p.Catalog.Len() == 0 {
		return fmt.Errorf("problem needs a non-empty material catalog")
	}
	if p.Layers < 1 {
		return fmt.Errorf("layer count must be at least 1, got %d", p.Layers)
	}
	W := p.Grid.NumWavelengths()
	if W == 0 || p.Grid.NumAngles() == 0 {
		return fmt.Errorf("problem grid is empty")
	}
	if got := p.Catalog.Wavelengths(); len(got) != W {
		return fmt.Errorf("catalog sampled at %d wavelengths, grid has %d", len(got), W)
	}
	if len(p.Substrate) != W {
		return fmt.Errorf("substrate sampled at %d wavelengths, grid has %d", len(p.Substrate), W)
	}
	if _, err := film.NewBounds(p.Bounds.Min, p.Bounds.Max); err != nil {
		return err
	}
	return nil
}

// ResidualLen returns 2·W·A: psi mismatches followed by delta mismatches.
func (p *Problem) ResidualLen() int { return 2 * p.Grid.Points() }

// Residual evaluates the mismatch between a candidate stack and one target spectrum
// for a fixed material assignment. It owns scratch buffers and is not safe for
// concurrent use; build one per local fit.
type Residual struct {
	problem *Problem
	layers  [][]complex128
	target  film.Spectrum
	thick   []float64
	sim     film.Spectrum
}

// NewResidual binds a material assignment (one catalog index per layer) and a target.
func NewResidual(p *Problem, assignment []int, target film.Spectrum) (*Residual, error) {
	if len(assignment) != p.Layers {
		return nil, fmt.Errorf("assignment has %d layers, problem has %d", len(assignment), p.Layers)
	}
	if err := target.Validate(p.Grid); err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	layers := make([][]complex128, len(assignment))
	for l, m := range assignment {
		if m < 0 || m >= p.Catalog.Len() {
			return nil, fmt.Errorf("layer %d: material index %d outside [0, %d)", l, m, p.Catalog.Len())
		}
		layers[l] = p.Catalog.Index(m)
	}
	return &Residual{
		problem: p,
		layers:  layers,
		target:  target,
		thick:   make([]float64, p.Layers),
		sim:     film.NewSpectrum(p.Grid),
	}, nil
}

// Len returns the residual vector length.
func (r *Residual) Len() int { return r.problem.ResidualLen() }

// Simulate returns the spectrum of the stack at optimizer variable x.
func (r *Residual) Simulate(x []float64) (film.Spectrum, error) {
	out := film.NewSpectrum(r.problem.Grid)
	if err := r.simulate(x, out); err != nil {
		return film.Spectrum{}, err
	}
	return out, nil
}

func (r *Residual) simulate(x []float64, out film.Spectrum) error {
	p := r.problem
	p.Bounds.TransformAll(r.thick, x)
	return optics.SimulateEllipsometry(p.Grid, r.layers, r.thick, p.Incident, p.Substrate, out.Psi, out.Delta)
}

// Eval writes [sim_psi − target_psi | sim_delta − target_delta] into dst.
// A forward-model failure fills dst with NaN so the optimizer rejects the point.
func (r *Residual) Eval(dst, x []float64) {
	if err := r.simulate(x, r.sim); err != nil {
		for i := range dst {
			dst[i] = math.NaN()
		}
		return
	}
	n := len(r.sim.Psi)
	for i := 0; i < n; i++ {
		dst[i] = r.sim.Psi[i] - r.target.Psi[i]
		dst[n+i] = r.sim.Delta[i] - r.target.Delta[i]
	}
}
