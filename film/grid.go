package film

import (
	"fmt"
	"math"
)

// Grid is the fixed wavelength × angle sampling shared by every spectrum in a run.
// Angles are in degrees, wavelengths in nanometers.
type Grid struct {
	Angles      []float64
	Wavelengths []float64
}

// NewGrid builds a Grid from angles and an inclusive linearly spaced wavelength range.
func NewGrid(angles []float64, start, stop float64, count int) (Grid, error) {
	if len(angles) == 0 {
		return Grid{}, fmt.Errorf("grid needs at least one angle")
	}
	if count < 1 {
		return Grid{}, fmt.Errorf("wavelength count must be positive, got %d", count)
	}
	if count > 1 && !(stop > start) {
		return Grid{}, fmt.Errorf("wavelength stop (%g) must exceed start (%g)", stop, start)
	}
	if start <= 0 {
		return Grid{}, fmt.Errorf("wavelengths must be positive, got start=%g", start)
	}
	for _, a := range angles {
		if math.IsNaN(a) || a < 0 || a >= 90 {
			return Grid{}, fmt.Errorf("incidence angle %g outside [0, 90)", a)
		}
	}
	return Grid{
		Angles:      append([]float64(nil), angles...),
		Wavelengths: Linspace(start, stop, count),
	}, nil
}

// Linspace returns count evenly spaced values over [start, stop], endpoints included.
func Linspace(start, stop float64, count int) []float64 {
	out := make([]float64, count)
	if count == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(count-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[count-1] = stop
	return out
}

// NumAngles returns A.
func (g Grid) NumAngles() int { return len(g.Angles) }

// NumWavelengths returns W.
func (g Grid) NumWavelengths() int { return len(g.Wavelengths) }

// Points returns W·A, the length of one flattened psi or delta spectrum.
func (g Grid) Points() int { return len(g.Angles) * len(g.Wavelengths) }

// Index returns the flattened position of (angle a, wavelength w).
func (g Grid) Index(a, w int) int { return a*len(g.Wavelengths) + w }

// Equal reports whether two grids sample exactly the same points.
func (g Grid) Equal(o Grid) bool {
	if len(g.Angles) != len(o.Angles) || len(g.Wavelengths) != len(o.Wavelengths) {
		return false
	}
	for i := range g.Angles {
		if g.Angles[i] != o.Angles[i] {
			return false
		}
	}
	for i := range g.Wavelengths {
		if g.Wavelengths[i] != o.Wavelengths[i] {
			return false
		}
	}
	return true
}

// Spectrum holds flattened psi and delta values (degrees) on a Grid.
type Spectrum struct {
	Psi   []float64
	Delta []float64
}

// NewSpectrum allocates a zeroed spectrum sized for g.
func NewSpectrum(g Grid) Spectrum {
	return Spectrum{
		Psi:   make([]float64, g.Points()),
		Delta: make([]float64, g.Points()),
	}
}

// Validate checks that the spectrum is laid out on g.
func (s Spectrum) Validate(g Grid) error {
	if len(s.Psi) != g.Points() || len(s.Delta) != g.Points() {
		return fmt.Errorf("spectrum has %d psi / %d delta points, grid expects %d",
			len(s.Psi), len(s.Delta), g.Points())
	}
	return nil
}
