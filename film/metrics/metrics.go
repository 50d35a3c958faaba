// Package metrics scores a batch of inversions against ground truth and writes the
// run's result files.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Metrics holds per-layer scores for one batch.
type Metrics struct {
	AccuracyPercent []float64 // share of systems whose material was identified, 0–100
	ThicknessRMSE   []float64 // nm
}

// Accuracy scores predictions against ground truth. All four arrays are
// systems × layers. Materials compare equal after truncation to int64, so float
// encoded labels from an archive work directly.
func Accuracy(trueMat, trueThick, predMat, predThick [][]float64) (*Metrics, error) {
	n := len(trueMat)
	if n == 0 {
		return nil, fmt.Errorf("accuracy needs at least one system")
	}
	if len(trueThick) != n || len(predMat) != n || len(predThick) != n {
		return nil, fmt.Errorf("row counts differ: true materials %d, true thickness %d, predicted materials %d, predicted thickness %d",
			n, len(trueThick), len(predMat), len(predThick))
	}
	layers := len(trueMat[0])
	if layers == 0 {
		return nil, fmt.Errorf("accuracy needs at least one layer")
	}
	for i := 0; i < n; i++ {
		if len(trueMat[i]) != layers || len(trueThick[i]) != layers ||
			len(predMat[i]) != layers || len(predThick[i]) != layers {
			return nil, fmt.Errorf("system %d: expected %d layers in every array", i, layers)
		}
	}

	m := &Metrics{
		AccuracyPercent: make([]float64, layers),
		ThicknessRMSE:   make([]float64, layers),
	}
	diff := make([]float64, n)
	for l := 0; l < layers; l++ {
		hits := 0
		for i := 0; i < n; i++ {
			if int64(trueMat[i][l]) == int64(predMat[i][l]) {
				hits++
			}
			diff[i] = predThick[i][l] - trueThick[i][l]
		}
		m.AccuracyPercent[l] = 100 * float64(hits) / float64(n)
		m.ThicknessRMSE[l] = floats.Norm(diff, 2) / math.Sqrt(float64(n))
	}
	return m, nil
}

// Layers returns the number of layers scored.
func (m *Metrics) Layers() int { return len(m.AccuracyPercent) }

// Flatten returns [accuracy per layer..., thickness RMSE per layer...].
func (m *Metrics) Flatten() []float64 {
	out := make([]float64, 0, 2*len(m.AccuracyPercent))
	out = append(out, m.AccuracyPercent...)
	return append(out, m.ThicknessRMSE...)
}
