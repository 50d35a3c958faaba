package optics

import (
	"fmt"

	"github.com/ellipsfit/ellipsfit/film"
)

// Spectra holds every flattened (angle-major) channel produced for one stack on a grid.
type Spectra struct {
	film.Spectrum
	Rp, Rs []float64
	Tp, Ts []float64
}

// stackAt assembles the media of wavelength w. layers is indexed [layer][wavelength].
func stackAt(w int, layers [][]complex128, thick []float64, incident complex128, substrate []complex128, buf []complex128) Stack {
	for l := range layers {
		buf[l] = layers[l][w]
	}
	return Stack{Incident: incident, Layers: buf, Thickness: thick, Substrate: substrate[w]}
}

func checkShapes(g film.Grid, layers [][]complex128, thick []float64, substrate []complex128) error {
	if len(layers) != len(thick) {
		return fmt.Errorf("%w: %d layers, %d thicknesses", ErrDegenerate, len(layers), len(thick))
	}
	W := g.NumWavelengths()
	for l, n := range layers {
		if len(n) != W {
			return fmt.Errorf("%w: layer %d sampled at %d wavelengths, grid has %d", ErrDegenerate, l, len(n), W)
		}
	}
	if len(substrate) != W {
		return fmt.Errorf("%w: substrate sampled at %d wavelengths, grid has %d", ErrDegenerate, len(substrate), W)
	}
	return nil
}

// SimulateEllipsometry evaluates psi and delta over every (angle, wavelength) of g into
// psi and delta, which must each have length g.Points(). The first solver error aborts.
func SimulateEllipsometry(g film.Grid, layers [][]complex128, thick []float64, incident complex128, substrate []complex128, psi, delta []float64) error {
	if err := checkShapes(g, layers, thick, substrate); err != nil {
		return err
	}
	if len(psi) != g.Points() || len(delta) != g.Points() {
		return fmt.Errorf("%w: output buffers sized %d/%d, grid has %d points",
			ErrDegenerate, len(psi), len(delta), g.Points())
	}
	buf := make([]complex128, len(layers))
	for a, ang := range g.Angles {
		for w, wl := range g.Wavelengths {
			p, d, err := Ellips(stackAt(w, layers, thick, incident, substrate, buf), ang, wl)
			if err != nil {
				return fmt.Errorf("angle %g°, wavelength %g: %w", ang, wl, err)
			}
			i := g.Index(a, w)
			psi[i], delta[i] = p, d
		}
	}
	return nil
}

// SimulateFull evaluates every channel (R, T, psi, delta) over g.
func SimulateFull(g film.Grid, layers [][]complex128, thick []float64, incident complex128, substrate []complex128) (*Spectra, error) {
	if err := checkShapes(g, layers, thick, substrate); err != nil {
		return nil, err
	}
	n := g.Points()
	out := &Spectra{
		Spectrum: film.NewSpectrum(g),
		Rp:       make([]float64, n), Rs: make([]float64, n),
		Tp: make([]float64, n), Ts: make([]float64, n),
	}
	buf := make([]complex128, len(layers))
	for a, ang := range g.Angles {
		for w, wl := range g.Wavelengths {
			resp, err := Evaluate(stackAt(w, layers, thick, incident, substrate, buf), ang, wl)
			if err != nil {
				return nil, fmt.Errorf("angle %g°, wavelength %g: %w", ang, wl, err)
			}
			i := g.Index(a, w)
			out.Psi[i], out.Delta[i] = resp.Psi, resp.Delta
			out.Rp[i], out.Rs[i] = resp.Rp, resp.Rs
			out.Tp[i], out.Ts[i] = resp.Tp, resp.Ts
		}
	}
	return out, nil
}
