package search

import (
	"fmt"
	"math"

	"github.com/ellipsfit/ellipsfit/film"
	"github.com/ellipsfit/ellipsfit/film/lm"
)

// LocalResult is the outcome of one Levenberg–Marquardt run inside a materials subspace.
type LocalResult struct {
	X           []float64 // unconstrained optimizer variables
	Thickness   []float64 // Transform(X), nanometers
	MSE         float64   // mean squared residual at X; +Inf when not evaluable
	Evaluations int
	Status      lm.Status
}

// LocalFit minimizes the residual for one material assignment starting from x0.
// Hitting the evaluation budget is not an error; the partial result is returned.
// Errors are reserved for malformed input.
func (p *Problem) LocalFit(x0 []float64, assignment []int, target film.Spectrum) (LocalResult, error) {
	if len(x0) != p.Layers {
		return LocalResult{}, fmt.Errorf("start has %d variables, problem has %d layers", len(x0), p.Layers)
	}
	res, err := NewResidual(p, assignment, target)
	if err != nil {
		return LocalResult{}, err
	}
	out, err := lm.Minimize(lm.Problem{Func: res.Eval, M: res.Len()}, x0, &p.LM)
	if err != nil {
		return LocalResult{}, err
	}
	mse := out.Cost / float64(res.Len())
	if math.IsNaN(mse) {
		mse = math.Inf(1)
	}
	return LocalResult{
		X:           out.X,
		Thickness:   p.Bounds.TransformAll(nil, out.X),
		MSE:         mse,
		Evaluations: out.Evaluations,
		Status:      out.Status,
	}, nil
}
