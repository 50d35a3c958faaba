// Package testutil provides shared test infrastructure for the film packages:
// the reference single-layer scenario and float assertion helpers.
package testutil

import (
	"math"
	"testing"

	"github.com/ellipsfit/ellipsfit/film"
	"github.com/ellipsfit/ellipsfit/film/material"
	"github.com/ellipsfit/ellipsfit/film/optics"
)

// Scenario is the reference configuration: one layer, five built-in materials,
// glass substrate, air ambient.
type Scenario struct {
	Grid      film.Grid
	Catalog   *material.Catalog
	Bounds    film.Bounds
	Substrate []complex128
	Incident  complex128
}

// ReferenceScenario builds the 25/45/65°, 450–950 nm, [1, 60] nm scenario with
// the given number of wavelengths (200 matches the reference dataset).
func ReferenceScenario(t testing.TB, wavelengths int) Scenario {
	t.Helper()
	g, err := film.NewGrid([]float64{25, 45, 65}, 450, 950, wavelengths)
	if err != nil {
		t.Fatalf("building grid: %v", err)
	}
	cat, err := material.NewBuiltinCatalog(g.Wavelengths, material.DefaultCatalogNames...)
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}
	glass, _ := material.Builtin("glass")
	sub, err := material.Sample(glass, g.Wavelengths)
	if err != nil {
		t.Fatalf("sampling substrate: %v", err)
	}
	return Scenario{
		Grid:      g,
		Catalog:   cat,
		Bounds:    film.Bounds{Min: 1, Max: 60},
		Substrate: sub,
		Incident:  1,
	}
}

// Target simulates the spectrum of the given stack in the scenario.
func (s Scenario) Target(t testing.TB, materials []int, thickness []float64) film.Spectrum {
	t.Helper()
	layers := make([][]complex128, len(materials))
	for l, m := range materials {
		layers[l] = s.Catalog.Index(m)
	}
	spec := film.NewSpectrum(s.Grid)
	if err := optics.SimulateEllipsometry(s.Grid, layers, thickness, s.Incident, s.Substrate, spec.Psi, spec.Delta); err != nil {
		t.Fatalf("simulating target: %v", err)
	}
	return spec
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
