package material

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Material is a named refractive index sampled on the run's wavelength grid.
type Material struct {
	Name  string
	Index []complex128
}

// Catalog is the ordered, immutable set of candidate materials, indexed 0..M-1.
// Safe for concurrent reads.
type Catalog struct {
	wavelengths []float64
	materials   []Material
}

// Sample evaluates a model at each wavelength. Models with a Range must cover
// every wavelength.
func Sample(m Model, wavelengths []float64) ([]complex128, error) {
	if r, ok := m.(Ranger); ok {
		lo, hi := r.Range()
		for _, wl := range wavelengths {
			if wl < lo || wl > hi {
				return nil, fmt.Errorf("wavelength %g nm outside tabulated range [%g, %g]", wl, lo, hi)
			}
		}
	}
	out := make([]complex128, len(wavelengths))
	for i, wl := range wavelengths {
		n := m.Index(wl)
		if cmplx.IsNaN(n) || cmplx.IsInf(n) || real(n) <= 0 || imag(n) < 0 || math.IsNaN(real(n)) {
			return nil, fmt.Errorf("non-physical index %v at %g nm", n, wl)
		}
		out[i] = n
	}
	return out, nil
}

// NewCatalog samples each named model on the wavelength grid, preserving order.
func NewCatalog(wavelengths []float64, names []string, models []Model) (*Catalog, error) {
	if len(names) != len(models) {
		return nil, fmt.Errorf("%d names for %d models", len(names), len(models))
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("catalog needs at least one material")
	}
	c := &Catalog{
		wavelengths: append([]float64(nil), wavelengths...),
		materials:   make([]Material, len(models)),
	}
	seen := make(map[string]bool, len(names))
	for i, m := range models {
		if seen[names[i]] {
			return nil, fmt.Errorf("duplicate material %q", names[i])
		}
		seen[names[i]] = true
		idx, err := Sample(m, wavelengths)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", names[i], err)
		}
		c.materials[i] = Material{Name: names[i], Index: idx}
	}
	return c, nil
}

// NewBuiltinCatalog builds a catalog from built-in model names.
func NewBuiltinCatalog(wavelengths []float64, names ...string) (*Catalog, error) {
	models := make([]Model, len(names))
	for i, n := range names {
		m, ok := Builtin(n)
		if !ok {
			return nil, fmt.Errorf("unknown built-in material %q", n)
		}
		models[i] = m
	}
	return NewCatalog(wavelengths, names, models)
}

// Len returns M.
func (c *Catalog) Len() int { return len(c.materials) }

// At returns material i.
func (c *Catalog) At(i int) Material { return c.materials[i] }

// Index returns the sampled refractive index of material i. Callers must not modify it.
func (c *Catalog) Index(i int) []complex128 { return c.materials[i].Index }

// Names returns material names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.materials))
	for i, m := range c.materials {
		out[i] = m.Name
	}
	return out
}

// Wavelengths returns the sampling grid. Callers must not modify it.
func (c *Catalog) Wavelengths() []float64 { return c.wavelengths }
