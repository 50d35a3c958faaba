// Package optics implements the transfer-matrix forward model for planar thin-film stacks.
//
// Refractive indices follow the N = n + ik convention (k ≥ 0 absorbs). Thicknesses and
// wavelengths share a length unit (nanometers throughout this repository).
package optics

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// ErrDegenerate marks a stack the solver cannot evaluate: non-finite amplitudes,
// vanishing interface denominators, or non-physical inputs.
var ErrDegenerate = errors.New("degenerate optical configuration")

// Polarization selects the s (TE) or p (TM) field component.
type Polarization int

const (
	S Polarization = iota
	P
)

// Amplitudes holds complex reflection and transmission coefficients of one polarization.
type Amplitudes struct {
	R complex128
	T complex128
}

// Response is the full optical response of a stack at one angle and wavelength.
type Response struct {
	S, P   Amplitudes
	Rs, Rp float64 // reflectance
	Ts, Tp float64 // transmittance
	Psi    float64 // degrees, [0, 90]
	Delta  float64 // degrees, (-180, 180]
}

// Stack describes the media for a single evaluation: incident medium, L layers, substrate.
type Stack struct {
	Incident  complex128
	Layers    []complex128
	Thickness []float64
	Substrate complex128
}

type matrix2 [2][2]complex128

func (a matrix2) mul(b matrix2) matrix2 {
	return matrix2{
		{a[0][0]*b[0][0] + a[0][1]*b[1][0], a[0][0]*b[0][1] + a[0][1]*b[1][1]},
		{a[1][0]*b[0][0] + a[1][1]*b[1][0], a[1][0]*b[0][1] + a[1][1]*b[1][1]},
	}
}

// normalComponent returns n·cosθ inside a medium of index n for in-plane invariant
// s = n0·sinθ0, choosing the forward-decaying branch.
func normalComponent(n complex128, s complex128) complex128 {
	kz := cmplx.Sqrt(n*n - s*s)
	if imag(kz) < 0 || (imag(kz) == 0 && real(kz) < 0) {
		kz = -kz
	}
	return kz
}

// interfaceCoefficients returns Fresnel r and t going from medium i into medium j.
func interfaceCoefficients(pol Polarization, ni, nj, kzi, kzj complex128) (complex128, complex128, error) {
	var num, den complex128
	switch pol {
	case S:
		num, den = kzi-kzj, kzi+kzj
	default:
		// cosθ = kz/n
		num, den = nj*nj*kzi-ni*ni*kzj, nj*nj*kzi+ni*ni*kzj
	}
	if den == 0 {
		return 0, 0, fmt.Errorf("%w: zero Fresnel denominator", ErrDegenerate)
	}
	r := num / den
	var t complex128
	if pol == S {
		t = 2 * kzi / den
	} else {
		t = 2 * ni * nj * kzi / den
	}
	return r, t, nil
}

// Solve computes coherent r and t for one polarization at the given angle (degrees)
// and wavelength.
func Solve(pol Polarization, st Stack, angleDeg, wavelength float64) (Amplitudes, error) {
	if len(st.Layers) != len(st.Thickness) {
		return Amplitudes{}, fmt.Errorf("%w: %d layer indices for %d thicknesses",
			ErrDegenerate, len(st.Layers), len(st.Thickness))
	}
	if !(wavelength > 0) {
		return Amplitudes{}, fmt.Errorf("%w: wavelength %g", ErrDegenerate, wavelength)
	}
	if imag(st.Incident) != 0 {
		return Amplitudes{}, fmt.Errorf("%w: absorbing incident medium", ErrDegenerate)
	}

	media := make([]complex128, 0, len(st.Layers)+2)
	media = append(media, st.Incident)
	media = append(media, st.Layers...)
	media = append(media, st.Substrate)

	s := st.Incident * complex(math.Sin(angleDeg*math.Pi/180), 0)
	kz := make([]complex128, len(media))
	for i, n := range media {
		if n == 0 {
			return Amplitudes{}, fmt.Errorf("%w: zero refractive index", ErrDegenerate)
		}
		kz[i] = normalComponent(n, s)
	}

	r01, t01, err := interfaceCoefficients(pol, media[0], media[1], kz[0], kz[1])
	if err != nil {
		return Amplitudes{}, err
	}
	m := matrix2{{1 / t01, r01 / t01}, {r01 / t01, 1 / t01}}

	k0 := 2 * math.Pi / wavelength
	for j := 1; j < len(media)-1; j++ {
		delta := complex(k0*st.Thickness[j-1], 0) * kz[j]
		r, t, err := interfaceCoefficients(pol, media[j], media[j+1], kz[j], kz[j+1])
		if err != nil {
			return Amplitudes{}, err
		}
		em, ep := cmplx.Exp(-1i*delta), cmplx.Exp(1i*delta)
		layer := matrix2{{em / t, em * r / t}, {ep * r / t, ep / t}}
		m = m.mul(layer)
	}

	if m[0][0] == 0 || cmplx.IsNaN(m[0][0]) || cmplx.IsInf(m[0][0]) || cmplx.IsNaN(m[1][0]) || cmplx.IsInf(m[1][0]) {
		return Amplitudes{}, fmt.Errorf("%w: non-finite transfer matrix", ErrDegenerate)
	}
	return Amplitudes{R: m[1][0] / m[0][0], T: 1 / m[0][0]}, nil
}

// Evaluate computes the full response (amplitudes, R, T, psi, delta) of a stack.
func Evaluate(st Stack, angleDeg, wavelength float64) (Response, error) {
	as, err := Solve(S, st, angleDeg, wavelength)
	if err != nil {
		return Response{}, err
	}
	ap, err := Solve(P, st, angleDeg, wavelength)
	if err != nil {
		return Response{}, err
	}

	s := st.Incident * complex(math.Sin(angleDeg*math.Pi/180), 0)
	kzi := normalComponent(st.Incident, s)
	kzf := normalComponent(st.Substrate, s)

	resp := Response{S: as, P: ap}
	resp.Rs = sqAbs(as.R)
	resp.Rp = sqAbs(ap.R)
	resp.Ts = sqAbs(as.T) * real(kzf) / real(kzi)
	// p power flow uses n·conj(cosθ); cosθ = kz/n.
	resp.Tp = sqAbs(ap.T) * real(st.Substrate*cmplx.Conj(kzf/st.Substrate)) /
		real(st.Incident*cmplx.Conj(kzi/st.Incident))

	psi, delta, err := ellipsometric(as.R, ap.R)
	if err != nil {
		return Response{}, err
	}
	resp.Psi, resp.Delta = psi, delta
	return resp, nil
}

// Ellips returns psi and delta (degrees) of a stack at one angle and wavelength.
func Ellips(st Stack, angleDeg, wavelength float64) (float64, float64, error) {
	as, err := Solve(S, st, angleDeg, wavelength)
	if err != nil {
		return 0, 0, err
	}
	ap, err := Solve(P, st, angleDeg, wavelength)
	if err != nil {
		return 0, 0, err
	}
	return ellipsometric(as.R, ap.R)
}

// ellipsometric converts rs, rp into psi and delta with tan(psi)·e^{iΔ} = −rp/rs.
func ellipsometric(rs, rp complex128) (float64, float64, error) {
	if rs == 0 {
		return 0, 0, fmt.Errorf("%w: vanishing s reflection", ErrDegenerate)
	}
	rho := -rp / rs
	if cmplx.IsNaN(rho) || cmplx.IsInf(rho) {
		return 0, 0, fmt.Errorf("%w: non-finite reflection ratio", ErrDegenerate)
	}
	psi := math.Atan(cmplx.Abs(rho)) * 180 / math.Pi
	delta := cmplx.Phase(rho) * 180 / math.Pi
	if delta == -180 {
		delta = 180
	}
	return psi, delta, nil
}

func sqAbs(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}
