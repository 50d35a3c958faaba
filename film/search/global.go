package search

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/ellipsfit/ellipsfit/film"
)

// FitType selects the global search policy.
type FitType int

const (
	// FitSingle runs one local fit per materials subspace from one shared random start.
	FitSingle FitType = 1
	// FitMultiStart repeats FitSingle NumStarts times with a fresh shared start each time.
	FitMultiStart FitType = 2
)

// Policy is the (fit_type, num_starts) pair applied to an entire batch.
type Policy struct {
	FitType   FitType `yaml:"fit_type"`
	NumStarts int     `yaml:"num_starts"`
}

// Validate checks the policy.
func (p Policy) Validate() error {
	switch p.FitType {
	case FitSingle:
		return nil
	case FitMultiStart:
		if p.NumStarts < 1 {
			return fmt.Errorf("fit_type 2 needs num_starts >= 1, got %d", p.NumStarts)
		}
		return nil
	default:
		return fmt.Errorf("unknown fit_type %d; valid: 1 (single), 2 (multi-start)", p.FitType)
	}
}

// Starts returns how many shared random starts the policy draws.
func (p Policy) Starts() int {
	if p.FitType == FitMultiStart {
		return p.NumStarts
	}
	return 1
}

// Tag renders the policy as used in result file names, e.g. "type23".
func (p Policy) Tag() string {
	return fmt.Sprintf("type%d%d", p.FitType, p.NumStarts)
}

// SentinelMSE is the incumbent error before any feasible candidate is found.
const SentinelMSE = 1e10

// Result is the best candidate found for one target spectrum.
type Result struct {
	Materials   []int
	Thickness   []float64
	MSE         float64
	Feasible    bool
	Attempts    int // local fits run
	Evaluations int // residual evaluations across all local fits
}

// Sentinel returns the explicit search-failure result: every material 0, every
// thickness 0, MSE = SentinelMSE.
func Sentinel(layers int) Result {
	return Result{
		Materials: make([]int, layers),
		Thickness: make([]float64, layers),
		MSE:       SentinelMSE,
	}
}

// IsSentinel reports whether r is the infeasible-search sentinel.
func (r Result) IsSentinel() bool {
	return !r.Feasible && r.MSE == SentinelMSE
}

// RMSE is the root of the mean squared spectral residual.
func (r Result) RMSE() float64 { return math.Sqrt(r.MSE) }

// Assignments enumerates every materials subspace for L layers over M materials,
// odometer order with layer 0 varying slowest.
func Assignments(materials, layers int) [][]int {
	if materials < 1 || layers < 1 {
		return nil
	}
	total := 1
	for l := 0; l < layers; l++ {
		total *= materials
	}
	out := make([][]int, total)
	cur := make([]int, layers)
	for i := range out {
		out[i] = append([]int(nil), cur...)
		for l := layers - 1; l >= 0; l-- {
			cur[l]++
			if cur[l] < materials {
				break
			}
			cur[l] = 0
		}
	}
	return out
}

// RandomStart draws a thickness uniformly in the bounds for each layer and maps it
// to the optimizer variable. It consumes exactly layers draws from rng.
func (p *Problem) RandomStart(rng *rand.Rand) []float64 {
	x0 := make([]float64, p.Layers)
	for l := range x0 {
		t := p.Bounds.Min + rng.Float64()*(p.Bounds.Max-p.Bounds.Min)
		x0[l] = p.Bounds.Inverse(t)
	}
	return x0
}

// feasible is the gate a candidate must pass to replace the incumbent.
func (p *Problem) feasible(lr LocalResult) bool {
	if math.IsNaN(lr.MSE) || math.IsInf(lr.MSE, 0) {
		return false
	}
	return p.Bounds.ContainsAll(lr.Thickness)
}

// Search runs the global search for one target. rng supplies the random starts and
// is used by this call only; pass a per-system stream for reproducible batches.
// A Result with Feasible == false is the sentinel and signals search failure.
func (p *Problem) Search(target film.Spectrum, policy Policy, rng *rand.Rand) (Result, error) {
	if err := policy.Validate(); err != nil {
		return Result{}, err
	}
	if err := target.Validate(p.Grid); err != nil {
		return Result{}, fmt.Errorf("target: %w", err)
	}

	best := Sentinel(p.Layers)
	subspaces := Assignments(p.Catalog.Len(), p.Layers)
	for rep := 0; rep < policy.Starts(); rep++ {
		x0 := p.RandomStart(rng)
		for _, assignment := range subspaces {
			lr, err := p.LocalFit(x0, assignment, target)
			if err != nil {
				return Result{}, err
			}
			best.Attempts++
			best.Evaluations += lr.Evaluations

			// Later equal-quality candidates win ties.
			if lr.MSE <= best.MSE && p.feasible(lr) {
				best.Materials = append(best.Materials[:0], assignment...)
				best.Thickness = append(best.Thickness[:0], lr.Thickness...)
				best.MSE = lr.MSE
				best.Feasible = true
				logrus.Debugf("start %d materials %v: new incumbent thickness=%v mse=%.3e (%s)",
					rep, assignment, lr.Thickness, lr.MSE, lr.Status)
			}
		}
	}
	return best, nil
}
