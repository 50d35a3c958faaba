// Package batch runs the global search over many target spectra in parallel and
// keeps every outcome aligned with its input index.
package batch

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	"github.com/ellipsfit/ellipsfit/film"
	"github.com/ellipsfit/ellipsfit/film/search"
)

// Target is one system to invert. System is its index in the source dataset and
// selects the system's RNG stream.
type Target struct {
	System   int
	Spectrum film.Spectrum
}

// Outcome is the result for one target.
type Outcome struct {
	System   int
	Result   search.Result
	Elapsed  time.Duration
	Attempts int  // 2 when the first attempt panicked
	Failed   bool // Result is the sentinel and Err says why
	Err      error
}

// Batch is the ordered outcome of one orchestrator run: Outcomes[i] belongs to targets[i].
type Batch struct {
	Policy   search.Policy
	Outcomes []Outcome
	Wall     time.Duration
}

// SecondsPerSystem is the batch wall time divided by the number of systems.
func (b *Batch) SecondsPerSystem() float64 {
	if len(b.Outcomes) == 0 {
		return 0
	}
	return b.Wall.Seconds() / float64(len(b.Outcomes))
}

type searchFunc func(target film.Spectrum, policy search.Policy, rng *rand.Rand) (search.Result, error)

// Orchestrator dispatches searches onto a bounded worker pool. Workers share the
// read-only problem; each task gets its own RNG derived from the run key.
type Orchestrator struct {
	problem *search.Problem
	workers int
	key     film.RunKey
	search  searchFunc
}

// New creates an orchestrator. workers <= 0 uses runtime.NumCPU().
func New(problem *search.Problem, workers int, key film.RunKey) (*Orchestrator, error) {
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Orchestrator{problem: problem, workers: workers, key: key, search: problem.Search}, nil
}

// Workers returns the pool size.
func (o *Orchestrator) Workers() int { return o.workers }

// Run searches every target under policy. Results are independent of the worker
// count and of scheduling order. A task that panics is retried once with a fresh
// copy of its RNG stream; a second panic, a search error, or a context cancelled
// before the task starts yields a Failed outcome carrying the sentinel result.
func (o *Orchestrator) Run(ctx context.Context, targets []Target, policy search.Policy) (*Batch, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	for i, t := range targets {
		if err := t.Spectrum.Validate(o.problem.Grid); err != nil {
			return nil, fmt.Errorf("target %d (system %d): %w", i, t.System, err)
		}
	}

	logrus.Infof("Inverting %d systems on %d workers (%s)", len(targets), o.workers, policy.Tag())
	b := &Batch{Policy: policy, Outcomes: make([]Outcome, len(targets))}
	start := time.Now()
	p := pool.New().WithMaxGoroutines(o.workers)
	for i := range targets {
		i := i
		p.Go(func() {
			b.Outcomes[i] = o.runOne(ctx, targets[i], policy)
		})
	}
	p.Wait()
	b.Wall = time.Since(start)

	for _, out := range b.Outcomes {
		switch {
		case out.Failed:
			logrus.Warnf("system %d failed after %d attempt(s): %v", out.System, out.Attempts, out.Err)
		case !out.Result.Feasible:
			logrus.Warnf("system %d: no feasible candidate, reporting sentinel", out.System)
		}
	}
	return b, nil
}

func (o *Orchestrator) runOne(ctx context.Context, t Target, policy search.Policy) Outcome {
	out := Outcome{System: t.System}
	if err := ctx.Err(); err != nil {
		out.Result, out.Failed, out.Err = search.Sentinel(o.problem.Layers), true, err
		return out
	}

	begin := time.Now()
	for attempt := 1; attempt <= 2; attempt++ {
		out.Attempts = attempt
		var res search.Result
		var err error
		rng := film.NewSystemRNG(o.key, t.System)
		var catcher panics.Catcher
		catcher.Try(func() {
			res, err = o.search(t.Spectrum, policy, rng)
		})
		if recovered := catcher.Recovered(); recovered != nil {
			out.Err = recovered.AsError()
			logrus.Debugf("system %d attempt %d panicked: %v", t.System, attempt, recovered.Value)
			continue
		}
		if err != nil {
			out.Err = err
			break
		}
		out.Result, out.Err = res, nil
		out.Elapsed = time.Since(begin)
		logrus.Debugf("system %d: materials %v thickness %v mse %.3e in %s",
			t.System, res.Materials, res.Thickness, res.MSE, out.Elapsed)
		return out
	}
	out.Result, out.Failed = search.Sentinel(o.problem.Layers), true
	out.Elapsed = time.Since(begin)
	return out
}
