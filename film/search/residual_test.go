package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellipsfit/ellipsfit/film/internal/testutil"
)

func newProblem(sc testutil.Scenario) *Problem {
	return &Problem{
		Grid:      sc.Grid,
		Catalog:   sc.Catalog,
		Bounds:    sc.Bounds,
		Layers:    1,
		Incident:  sc.Incident,
		Substrate: sc.Substrate,
	}
}

func TestResidual_RoundTripIsZero(t *testing.T) {
	// GIVEN a target simulated from the candidate's own stack
	sc := testutil.ReferenceScenario(t, 25)
	p := newProblem(sc)
	x := []float64{0.37}
	target := sc.Target(t, []int{3}, p.Bounds.TransformAll(nil, x))

	res, err := NewResidual(p, []int{3}, target)
	require.NoError(t, err)

	// WHEN the residual is evaluated at the same variable
	dst := make([]float64, res.Len())
	res.Eval(dst, x)

	// THEN every psi and delta entry is exactly zero
	for i, v := range dst {
		assert.Equal(t, 0.0, v, "entry %d", i)
	}
}

func TestResidual_LayoutPsiThenDelta(t *testing.T) {
	sc := testutil.ReferenceScenario(t, 10)
	p := newProblem(sc)
	x := []float64{-0.2}
	target := sc.Target(t, []int{1}, p.Bounds.TransformAll(nil, x))
	n := sc.Grid.Points()

	// GIVEN the target psi shifted at flattened point 7 and delta shifted at point 12
	target.Psi[7] += 1.5
	target.Delta[12] -= 2.5

	res, err := NewResidual(p, []int{1}, target)
	require.NoError(t, err)
	require.Equal(t, 2*n, res.Len())

	dst := make([]float64, res.Len())
	res.Eval(dst, x)

	// THEN psi mismatches come first and delta mismatches follow
	assert.InDelta(t, -1.5, dst[7], 1e-12)
	assert.InDelta(t, 2.5, dst[n+12], 1e-12)
	assert.Equal(t, 0.0, dst[n+7])
	assert.Equal(t, 0.0, dst[12])
}

func TestResidual_ForwardFailureIsNaN(t *testing.T) {
	sc := testutil.ReferenceScenario(t, 5)
	p := newProblem(sc)
	p.Substrate = make([]complex128, len(sc.Substrate)) // zero index cannot be solved
	target := sc.Target(t, []int{0}, []float64{10})

	res, err := NewResidual(p, []int{0}, target)
	require.NoError(t, err)
	dst := make([]float64, res.Len())
	res.Eval(dst, []float64{0})
	for _, v := range dst {
		assert.True(t, math.IsNaN(v))
	}
	_, err = res.Simulate([]float64{0})
	assert.Error(t, err)
}

func TestNewResidual_RejectsBadInput(t *testing.T) {
	sc := testutil.ReferenceScenario(t, 5)
	p := newProblem(sc)
	target := sc.Target(t, []int{0}, []float64{10})

	_, err := NewResidual(p, []int{5}, target)
	assert.Error(t, err)
	_, err = NewResidual(p, []int{0, 1}, target)
	assert.Error(t, err)
	target.Psi = target.Psi[:3]
	_, err = NewResidual(p, []int{0}, target)
	assert.Error(t, err)
}

func TestResidual_DeltaDifferenceIsNotWrapped(t *testing.T) {
	// GIVEN a round-trip target whose first delta is shifted by more than half a turn
	sc := testutil.ReferenceScenario(t, 8)
	p := newProblem(sc)
	x := []float64{0.1}
	target := sc.Target(t, []int{4}, p.Bounds.TransformAll(nil, x))
	target.Delta[0] += 200

	res, err := NewResidual(p, []int{4}, target)
	require.NoError(t, err)

	// WHEN evaluated at the generating variable
	dst := make([]float64, res.Len())
	res.Eval(dst, x)

	// THEN the delta entry is the plain simulated minus target difference
	assert.InDelta(t, -200.0, dst[sc.Grid.Points()], 1e-9)
}

func TestProblem_Validate(t *testing.T) {
	sc := testutil.ReferenceScenario(t, 5)
	p := newProblem(sc)
	require.NoError(t, p.Validate())

	bad := *p
	bad.Layers = 0
	assert.Error(t, bad.Validate())

	bad = *p
	bad.Substrate = sc.Substrate[:2]
	assert.Error(t, bad.Validate())

	bad = *p
	bad.Catalog = nil
	assert.Error(t, bad.Validate())

	bad = *p
	bad.Bounds.Max = bad.Bounds.Min
	assert.Error(t, bad.Validate())
}
