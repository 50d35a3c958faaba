// Package material provides complex refractive index models and the ordered material
// catalog the inversion searches over.
//
// All models take wavelengths in nanometers and return N = n + ik with k ≥ 0.
package material

import (
	"math"
	"math/cmplx"
)

// Model returns the complex refractive index at a wavelength in nanometers.
type Model interface {
	Index(wavelength float64) complex128
}

// Ranger is implemented by models that are only valid over a wavelength interval.
type Ranger interface {
	Range() (lo, hi float64)
}

// hcEV converts between photon energy in eV and wavelength in nm.
const hcEV = 1239.84193

// Constant is a dispersionless medium.
type Constant struct {
	N, K float64
}

func (c Constant) Index(float64) complex128 { return complex(c.N, c.K) }

// CauchyUrbach is a Cauchy real index with an Urbach absorption tail:
//
//	n = A + B/λ² + C/λ⁴            (λ in µm)
//	k = KAmp·exp(KExp·(E − BandEdge)) (E in eV)
type CauchyUrbach struct {
	A, B, C  float64
	KAmp     float64
	KExp     float64
	BandEdge float64
}

func (m CauchyUrbach) Index(wavelength float64) complex128 {
	um := wavelength / 1000
	l2 := um * um
	n := m.A + m.B/l2 + m.C/(l2*l2)
	k := 0.0
	if m.KAmp != 0 {
		k = m.KAmp * math.Exp(m.KExp*(hcEV/wavelength-m.BandEdge))
	}
	return complex(n, k)
}

// Sellmeier is a transparent dielectric:
//
//	n² = EpsInf + Σ Bᵢ·λ²/(λ² − Cᵢ)   (λ in µm, Cᵢ in µm²)
type Sellmeier struct {
	EpsInf float64
	B, C   []float64
}

func (m Sellmeier) Index(wavelength float64) complex128 {
	um := wavelength / 1000
	l2 := um * um
	eps := m.EpsInf
	for i := range m.B {
		eps += m.B[i] * l2 / (l2 - m.C[i])
	}
	return cmplx.Sqrt(complex(eps, 0))
}

// Oscillator is one Lorentz term of a DrudeLorentz model (energies in eV).
type Oscillator struct {
	Strength float64
	Damping  float64
	Energy   float64
}

// DrudeLorentz is a free-electron term plus bound Lorentz oscillators:
//
//	ε(ω) = EpsInf − F0·ωp²/(ω(ω + iΓ0)) + Σ fⱼ·ωp²/(ωⱼ² − ω² − iωΓⱼ)
type DrudeLorentz struct {
	EpsInf      float64
	Plasma      float64
	F0          float64
	Gamma0      float64
	Oscillators []Oscillator
}

func (m DrudeLorentz) Index(wavelength float64) complex128 {
	w := complex(hcEV/wavelength, 0)
	wp2 := complex(m.Plasma*m.Plasma, 0)
	eps := complex(m.EpsInf, 0)
	eps -= complex(m.F0, 0) * wp2 / (w * (w + complex(0, m.Gamma0)))
	for _, o := range m.Oscillators {
		e := complex(o.Energy, 0)
		eps += complex(o.Strength, 0) * wp2 / (e*e - w*w - 1i*w*complex(o.Damping, 0))
	}
	return principalIndex(eps)
}

// principalIndex takes the square root of ε on the k ≥ 0 branch.
func principalIndex(eps complex128) complex128 {
	n := cmplx.Sqrt(eps)
	if imag(n) < 0 {
		n = -n
	}
	return n
}
