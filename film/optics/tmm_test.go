package optics

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const glass = complex(1.52, 0)

func TestEvaluate_BareSubstrateNormalIncidence(t *testing.T) {
	// GIVEN air over glass with no layers
	st := Stack{Incident: 1, Substrate: glass}

	// WHEN evaluated at normal incidence
	resp, err := Evaluate(st, 0, 633)
	require.NoError(t, err)

	// THEN both polarizations reflect ((n-1)/(n+1))² and rho = 1
	want := math.Pow((1.52-1)/(1.52+1), 2)
	assert.InDelta(t, want, resp.Rs, 1e-12)
	assert.InDelta(t, want, resp.Rp, 1e-12)
	assert.InDelta(t, 45.0, resp.Psi, 1e-9)
	assert.InDelta(t, 0.0, resp.Delta, 1e-9)
}

func TestEvaluate_BrewsterAngleZeroesP(t *testing.T) {
	brewster := math.Atan(1.52) * 180 / math.Pi
	psi, _, err := Ellips(Stack{Incident: 1, Substrate: glass}, brewster, 633)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, psi, 1e-6)
}

func TestEvaluate_LosslessStackConservesEnergy(t *testing.T) {
	// GIVEN a transparent film on a transparent substrate
	st := Stack{
		Incident:  1,
		Layers:    []complex128{complex(2.1, 0)},
		Thickness: []float64{85},
		Substrate: glass,
	}
	for _, ang := range []float64{0, 25, 45, 65} {
		resp, err := Evaluate(st, ang, 550)
		require.NoError(t, err)
		// THEN R + T = 1 for each polarization
		assert.InDelta(t, 1.0, resp.Rs+resp.Ts, 1e-9, "s at %g°", ang)
		assert.InDelta(t, 1.0, resp.Rp+resp.Tp, 1e-9, "p at %g°", ang)
	}
}

func TestEvaluate_AbsorbingFilmLosesEnergy(t *testing.T) {
	st := Stack{
		Incident:  1,
		Layers:    []complex128{complex(0.05, 3.5)},
		Thickness: []float64{20},
		Substrate: glass,
	}
	resp, err := Evaluate(st, 45, 600)
	require.NoError(t, err)
	assert.Less(t, resp.Rs+resp.Ts, 1.0)
	assert.Less(t, resp.Rp+resp.Tp, 1.0)
}

func TestSolve_ZeroThicknessMatchesBareSubstrate(t *testing.T) {
	bare := Stack{Incident: 1, Substrate: glass}
	coated := Stack{Incident: 1, Layers: []complex128{complex(2.4, 0.1)}, Thickness: []float64{0}, Substrate: glass}
	for _, pol := range []Polarization{S, P} {
		a, err := Solve(pol, bare, 45, 700)
		require.NoError(t, err)
		b, err := Solve(pol, coated, 45, 700)
		require.NoError(t, err)
		assert.InDelta(t, 0, cmplx.Abs(a.R-b.R), 1e-12)
	}
}

func TestSolve_SingleLayerMatchesAiryFormula(t *testing.T) {
	// r = (r01 + r12·e^{2iβ}) / (1 + r01·r12·e^{2iβ}), β = 2π·d·n1·cosθ1/λ
	n0, n1, n2 := complex(1, 0), complex(1.9, 0.02), glass
	d, lambda, ang := 120.0, 500.0, 55.0
	s := n0 * complex(math.Sin(ang*math.Pi/180), 0)
	kz0, kz1, kz2 := normalComponent(n0, s), normalComponent(n1, s), normalComponent(n2, s)

	r01 := (kz0 - kz1) / (kz0 + kz1)
	r12 := (kz1 - kz2) / (kz1 + kz2)
	phase := cmplx.Exp(2i * complex(2*math.Pi*d/lambda, 0) * kz1)
	want := (r01 + r12*phase) / (1 + r01*r12*phase)

	got, err := Solve(S, Stack{Incident: n0, Layers: []complex128{n1}, Thickness: []float64{d}, Substrate: n2}, ang, lambda)
	require.NoError(t, err)
	assert.InDelta(t, 0, cmplx.Abs(got.R-want), 1e-12)
}

func TestSolve_DegenerateInputs(t *testing.T) {
	cases := map[string]Stack{
		"mismatched layers": {Incident: 1, Layers: []complex128{2}, Substrate: glass},
		"zero index":        {Incident: 1, Layers: []complex128{0}, Thickness: []float64{10}, Substrate: glass},
		"absorbing ambient": {Incident: complex(1, 0.1), Substrate: glass},
	}
	for name, st := range cases {
		_, err := Solve(S, st, 45, 600)
		assert.True(t, errors.Is(err, ErrDegenerate), "%s: got %v", name, err)
	}
	_, err := Solve(S, Stack{Incident: 1, Substrate: glass}, 45, 0)
	assert.True(t, errors.Is(err, ErrDegenerate))
}

func TestEllips_DeltaRange(t *testing.T) {
	st := Stack{Incident: 1, Layers: []complex128{complex(0.2, 3)}, Thickness: []float64{15}, Substrate: glass}
	for _, wl := range []float64{450, 600, 800, 950} {
		psi, delta, err := Ellips(st, 65, wl)
		require.NoError(t, err)
		assert.True(t, psi >= 0 && psi <= 90, "psi %g", psi)
		assert.True(t, delta > -180 && delta <= 180, "delta %g", delta)
	}
}
