// Package lm implements a damped Gauss–Newton (Levenberg–Marquardt) minimizer for
// nonlinear least-squares problems min ‖f(x)‖² with a finite-difference Jacobian.
//
// Non-finite residuals are treated as failed trial steps: the step is rejected and the
// damping raised, so a model that cannot be evaluated somewhere never aborts a fit.
package lm

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Problem is a least-squares objective with M residuals.
// Func must fill dst (length M) and must not retain or modify x.
type Problem struct {
	Func func(dst, x []float64)
	M    int
}

// Settings controls termination. Zero values select defaults.
type Settings struct {
	// MaxEvaluations caps residual evaluations, Jacobian columns included.
	// Default 100·n·(n+1).
	MaxEvaluations int
	FTol           float64 // relative cost reduction; default 1e-8
	XTol           float64 // relative step size; default 1e-8
	GTol           float64 // gradient max-norm; default 1e-8
	InitialDamping float64 // default 1e-3
	Step           float64 // finite-difference step; 0 uses the fd.Forward default
}

// Status reports why Minimize stopped.
type Status int

const (
	NotTerminated Status = iota
	FunctionConvergence
	StepConvergence
	GradientConvergence
	EvaluationLimit
	DampingLimit
	NonFiniteStart
	NonFiniteJacobian
)

func (s Status) String() string {
	switch s {
	case FunctionConvergence:
		return "FunctionConvergence"
	case StepConvergence:
		return "StepConvergence"
	case GradientConvergence:
		return "GradientConvergence"
	case EvaluationLimit:
		return "EvaluationLimit"
	case DampingLimit:
		return "DampingLimit"
	case NonFiniteStart:
		return "NonFiniteStart"
	case NonFiniteJacobian:
		return "NonFiniteJacobian"
	default:
		return "NotTerminated"
	}
}

// Converged reports whether the status is one of the tolerance-based stops.
func (s Status) Converged() bool {
	return s == FunctionConvergence || s == StepConvergence || s == GradientConvergence
}

// Result is the final iterate. Residual is f(X); Cost is ‖f(X)‖² (+Inf when non-finite).
type Result struct {
	X           []float64
	Residual    []float64
	Cost        float64
	Evaluations int
	Iterations  int
	Status      Status
}

const (
	maxDamping   = 1e16
	minDamping   = 1e-15
	diagFloor    = 1e-12
	dampingScale = 10
)

// Minimize runs Levenberg–Marquardt from x0. It returns an error only for malformed
// input; running out of budget is reported through Result.Status.
func Minimize(p Problem, x0 []float64, settings *Settings) (*Result, error) {
	if p.Func == nil {
		return nil, errors.New("lm: nil residual function")
	}
	n := len(x0)
	if n == 0 {
		return nil, errors.New("lm: empty starting point")
	}
	if p.M <= 0 {
		return nil, fmt.Errorf("lm: residual length must be positive, got %d", p.M)
	}
	s := withDefaults(settings, n)

	x := append([]float64(nil), x0...)
	r := make([]float64, p.M)
	p.Func(r, x)
	res := &Result{Evaluations: 1}
	cost := sumSquares(r)
	if !isFinite(cost) {
		res.X, res.Residual, res.Cost, res.Status = x, r, math.Inf(1), NonFiniteStart
		return res, nil
	}

	jac := mat.NewDense(p.M, n, nil)
	jacSettings := &fd.JacobianSettings{Formula: fd.Forward, Step: s.Step}
	var jtj mat.SymDense
	damped := mat.NewSymDense(n, nil)
	grad := mat.NewVecDense(n, nil)
	var step mat.VecDense
	var chol mat.Cholesky
	xTrial := make([]float64, n)
	rTrial := make([]float64, p.M)
	lambda := s.InitialDamping

	status := NotTerminated
	for status == NotTerminated {
		if res.Evaluations+n > s.MaxEvaluations {
			status = EvaluationLimit
			break
		}
		jacSettings.OriginValue = r
		fd.Jacobian(jac, p.Func, x, jacSettings)
		res.Evaluations += n
		if !finiteDense(jac) {
			status = NonFiniteJacobian
			break
		}

		grad.MulVec(jac.T(), mat.NewVecDense(p.M, r))
		if mat.Norm(grad, math.Inf(1)) <= s.GTol {
			status = GradientConvergence
			break
		}
		jtj.SymOuterK(1, jac.T())
		res.Iterations++

		for {
			if res.Evaluations >= s.MaxEvaluations {
				status = EvaluationLimit
				break
			}
			damped.CopySym(&jtj)
			for i := 0; i < n; i++ {
				d := jtj.At(i, i)
				damped.SetSym(i, i, d+lambda*math.Max(d, diagFloor))
			}
			if ok := chol.Factorize(damped); !ok {
				if lambda *= dampingScale; lambda > maxDamping {
					status = DampingLimit
					break
				}
				continue
			}
			if err := chol.SolveVecTo(&step, grad); err != nil {
				if lambda *= dampingScale; lambda > maxDamping {
					status = DampingLimit
					break
				}
				continue
			}
			for i := range xTrial {
				xTrial[i] = x[i] - step.AtVec(i)
			}
			stepNorm := mat.Norm(&step, 2)
			xNorm := floats.Norm(x, 2)

			p.Func(rTrial, xTrial)
			res.Evaluations++
			trialCost := sumSquares(rTrial)

			if isFinite(trialCost) && trialCost < cost {
				reduction := cost - trialCost
				prevCost := cost
				x, xTrial = xTrial, x
				r, rTrial = rTrial, r
				cost = trialCost
				lambda = math.Max(lambda/dampingScale, minDamping)
				switch {
				case cost == 0 || reduction <= s.FTol*prevCost:
					status = FunctionConvergence
				case stepNorm <= s.XTol*(s.XTol+xNorm):
					status = StepConvergence
				}
				break
			}

			// Rejected: a vanishing step means no further progress is possible.
			if stepNorm <= s.XTol*(s.XTol+xNorm) {
				status = StepConvergence
				break
			}
			if lambda *= dampingScale; lambda > maxDamping {
				status = DampingLimit
				break
			}
		}
	}

	res.X, res.Residual, res.Cost, res.Status = x, r, cost, status
	return res, nil
}

func withDefaults(in *Settings, n int) Settings {
	var s Settings
	if in != nil {
		s = *in
	}
	if s.MaxEvaluations <= 0 {
		s.MaxEvaluations = 100 * n * (n + 1)
	}
	if s.FTol <= 0 {
		s.FTol = 1e-8
	}
	if s.XTol <= 0 {
		s.XTol = 1e-8
	}
	if s.GTol <= 0 {
		s.GTol = 1e-8
	}
	if s.InitialDamping <= 0 {
		s.InitialDamping = 1e-3
	}
	return s
}

func sumSquares(r []float64) float64 {
	return floats.Dot(r, r)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteDense(m *mat.Dense) bool {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if !isFinite(m.At(i, j)) {
				return false
			}
		}
	}
	return true
}
