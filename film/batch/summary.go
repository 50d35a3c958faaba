package batch

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates statistics from a Batch.
type Summary struct {
	Systems    int
	Feasible   int
	Infeasible int // searches that ended on the sentinel
	Failed     int // tasks that panicked twice, errored, or were cancelled
	Retried    int

	MeanSeconds float64 // per-system elapsed time
	StdSeconds  float64
	MeanRMSE    float64 // fit RMSE over feasible systems
	MaxRMSE     float64
}

// Summarize computes aggregate statistics from a Batch.
// Safe for nil or empty batches (returns zero-value fields).
func Summarize(b *Batch) *Summary {
	s := &Summary{}
	if b == nil || len(b.Outcomes) == 0 {
		return s
	}

	s.Systems = len(b.Outcomes)
	secs := make([]float64, 0, s.Systems)
	var rmse []float64
	for _, o := range b.Outcomes {
		secs = append(secs, o.Elapsed.Seconds())
		if o.Attempts > 1 {
			s.Retried++
		}
		switch {
		case o.Failed:
			s.Failed++
		case o.Result.Feasible:
			s.Feasible++
			r := o.Result.RMSE()
			rmse = append(rmse, r)
			s.MaxRMSE = math.Max(s.MaxRMSE, r)
		default:
			s.Infeasible++
		}
	}

	s.MeanSeconds, s.StdSeconds = stat.MeanStdDev(secs, nil)
	if math.IsNaN(s.StdSeconds) {
		s.StdSeconds = 0
	}
	if len(rmse) > 0 {
		s.MeanRMSE = stat.Mean(rmse, nil)
	}
	return s
}
