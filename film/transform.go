package film

import (
	"fmt"
	"math"
)

// Bounds is the closed physical thickness interval [Min, Max] in nanometers.
type Bounds struct {
	Min float64
	Max float64
}

// NewBounds validates and returns a thickness interval.
func NewBounds(lo, hi float64) (Bounds, error) {
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return Bounds{}, fmt.Errorf("thickness bounds must be finite, got [%g, %g]", lo, hi)
	}
	if lo < 0 || !(hi > lo) {
		return Bounds{}, fmt.Errorf("thickness bounds must satisfy 0 <= min < max, got [%g, %g]", lo, hi)
	}
	return Bounds{Min: lo, Max: hi}, nil
}

// Mid returns the center of the interval.
func (b Bounds) Mid() float64 { return 0.5 * (b.Max + b.Min) }

// HalfWidth returns half the interval length.
func (b Bounds) HalfWidth() float64 { return 0.5 * (b.Max - b.Min) }

// Transform maps an unconstrained optimizer variable onto (Min, Max):
//
//	t = tanh(x)·(Max−Min)/2 + (Max+Min)/2
//
// Strictly increasing; saturates toward the bounds for large |x|.
func (b Bounds) Transform(x float64) float64 {
	return math.Tanh(x)*b.HalfWidth() + b.Mid()
}

// TransformAll applies Transform element-wise into dst and returns it.
// dst is allocated when nil.
func (b Bounds) TransformAll(dst, x []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(x))
	}
	for i, v := range x {
		dst[i] = b.Transform(v)
	}
	return dst
}

// inverseMargin keeps Inverse finite when t sits on a bound.
const inverseMargin = 1e-12

// Inverse maps a thickness back to the optimizer variable. Values at or beyond the
// bounds are pulled strictly inside before atanh.
func (b Bounds) Inverse(t float64) float64 {
	u := (t - b.Mid()) / b.HalfWidth()
	lim := 1 - inverseMargin
	if u > lim {
		u = lim
	} else if u < -lim {
		u = -lim
	}
	return math.Atanh(u)
}

// Contains reports whether t is finite and inside [Min, Max] inclusive.
func (b Bounds) Contains(t float64) bool {
	return !math.IsNaN(t) && t >= b.Min && t <= b.Max
}

// ContainsAll reports whether every thickness passes Contains.
func (b Bounds) ContainsAll(ts []float64) bool {
	for _, t := range ts {
		if !b.Contains(t) {
			return false
		}
	}
	return true
}
