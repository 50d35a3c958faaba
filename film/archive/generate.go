package archive

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/ellipsfit/ellipsfit/film"
	"github.com/ellipsfit/ellipsfit/film/material"
	"github.com/ellipsfit/ellipsfit/film/optics"
)

// Generator simulates ground-truth systems with random materials and thicknesses.
type Generator struct {
	Grid      film.Grid
	Catalog   *material.Catalog
	Bounds    film.Bounds
	Layers    int
	Incident  complex128
	Substrate []complex128
}

// Schema returns the archive layout the generator produces.
func (g *Generator) Schema() (Schema, error) {
	return NewSchema(g.Grid.NumAngles(), g.Catalog.Len(), g.Layers, g.Grid.NumWavelengths())
}

// Generate simulates rows systems. Per row, rng supplies one material index and
// then one thickness per layer.
func (g *Generator) Generate(rng *rand.Rand, rows int) (*Archive, error) {
	if rows < 1 {
		return nil, fmt.Errorf("row count must be positive, got %d", rows)
	}
	schema, err := g.Schema()
	if err != nil {
		return nil, err
	}
	a := New(schema, rows)
	M := g.Catalog.Len()
	mats := make([]int, g.Layers)
	thick := make([]float64, g.Layers)
	layers := make([][]complex128, g.Layers)
	for i := 0; i < rows; i++ {
		for l := range mats {
			mats[l] = rng.Intn(M)
			thick[l] = g.Bounds.Min + rng.Float64()*(g.Bounds.Max-g.Bounds.Min)
			layers[l] = g.Catalog.Index(mats[l])
		}
		sp, err := optics.SimulateFull(g.Grid, layers, thick, g.Incident, g.Substrate)
		if err != nil {
			return nil, fmt.Errorf("row %d (materials %v, thickness %v): %w", i, mats, thick, err)
		}
		copy(a.Field(i, FieldAngles), g.Grid.Angles)
		onehot := a.Field(i, FieldMaterial)
		for l, m := range mats {
			onehot[l*M+m] = 1
		}
		copy(a.Field(i, FieldThickness), thick)
		copy(a.Field(i, FieldRp), sp.Rp)
		copy(a.Field(i, FieldRs), sp.Rs)
		copy(a.Field(i, FieldTp), sp.Tp)
		copy(a.Field(i, FieldTs), sp.Ts)
		copy(a.Field(i, FieldPsi), sp.Psi)
		copy(a.Field(i, FieldDelta), sp.Delta)
	}
	logrus.Infof("Generated %d systems (%d layers, %d materials, %d columns per row)", rows, g.Layers, M, schema.Width())
	return a, nil
}
