package metrics

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccuracy_IdenticalArraysArePerfect(t *testing.T) {
	// GIVEN predictions equal to the ground truth
	mat := [][]float64{{0, 2}, {4, 1}, {3, 3}}
	thick := [][]float64{{10, 20}, {30.5, 1}, {59, 7}}

	// WHEN scored
	m, err := Accuracy(mat, thick, mat, thick)
	require.NoError(t, err)

	// THEN accuracy is 100 % and RMSE 0 on every layer
	assert.Equal(t, []float64{100, 100}, m.AccuracyPercent)
	assert.Equal(t, []float64{0, 0}, m.ThicknessRMSE)
	assert.Equal(t, []float64{100, 100, 0, 0}, m.Flatten())
	assert.Equal(t, 2, m.Layers())
}

func TestAccuracy_SingleSystemUsesSameCodePath(t *testing.T) {
	m, err := Accuracy([][]float64{{2}}, [][]float64{{30}}, [][]float64{{1}}, [][]float64{{33}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, m.AccuracyPercent)
	assert.InDelta(t, 3.0, m.ThicknessRMSE[0], 1e-12)
}

func TestAccuracy_KnownValues(t *testing.T) {
	// GIVEN four systems, three with the right material, thickness errors 1, -1, 3, -3
	trueMat := [][]float64{{0}, {1}, {2}, {3}}
	predMat := [][]float64{{0}, {1}, {2}, {4}}
	trueThick := [][]float64{{10}, {20}, {30}, {40}}
	predThick := [][]float64{{11}, {19}, {33}, {37}}

	m, err := Accuracy(trueMat, trueThick, predMat, predThick)
	require.NoError(t, err)

	// THEN accuracy is 75 % and RMSE sqrt((1+1+9+9)/4)
	assert.Equal(t, 75.0, m.AccuracyPercent[0])
	assert.InDelta(t, math.Sqrt(5), m.ThicknessRMSE[0], 1e-12)
}

func TestAccuracy_TruncatesMaterialLabels(t *testing.T) {
	m, err := Accuracy([][]float64{{2.0}}, [][]float64{{1}}, [][]float64{{2.9}}, [][]float64{{1}})
	require.NoError(t, err)
	assert.Equal(t, 100.0, m.AccuracyPercent[0])
}

func TestAccuracy_ShapeErrors(t *testing.T) {
	one := [][]float64{{1}}
	_, err := Accuracy(nil, nil, nil, nil)
	assert.Error(t, err)
	_, err = Accuracy(one, one, one, [][]float64{{1}, {2}})
	assert.Error(t, err)
	_, err = Accuracy(one, one, one, [][]float64{{1, 2}})
	assert.Error(t, err)
	_, err = Accuracy([][]float64{{}}, [][]float64{{}}, [][]float64{{}}, [][]float64{{}})
	assert.Error(t, err)
}

func TestResultStem(t *testing.T) {
	at := time.Date(2024, 3, 7, 9, 5, 2, 0, time.UTC)
	stem := ResultStem("out", "lsq_ellips_fitresults_1l5m", "type23", at)
	assert.Equal(t, filepath.Join("out", "lsq_ellips_fitresults_1l5m_type23_240307_090502"), stem)
	assert.Equal(t, stem+".txt", SummaryPath(stem))
	assert.Equal(t, stem+"_results.txt", SystemsPath(stem))
}

func TestWriteSummary_OneValuePerLine(t *testing.T) {
	m := &Metrics{AccuracyPercent: []float64{80, 100}, ThicknessRMSE: []float64{0.25, 1.5}}
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, m, 0.125))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	want := []float64{80, 100, 0.25, 1.5, 0.125}
	for i, line := range lines {
		got, err := strconv.ParseFloat(line, 64)
		require.NoError(t, err, "line %d: %q", i, line)
		assert.Equal(t, want[i], got)
	}
}

func TestWriteSystems_RowLayout(t *testing.T) {
	var buf bytes.Buffer
	rows := []SystemRow{
		{Materials: []int{2, 0}, Thickness: []float64{30, 12.5}, FitRMSE: 0.001},
		{Materials: []int{-1, -1}, Thickness: []float64{0, 0}, FitRMSE: 1e5},
	}
	require.NoError(t, WriteSystems(&buf, rows))
	assert.Equal(t, "2,0,30,12.5,0.001\n-1,-1,0,0,100000\n", buf.String())
}

func TestSaveRun_WritesBothFiles(t *testing.T) {
	// GIVEN a stem inside a directory that does not exist yet
	stem := ResultStem(filepath.Join(t.TempDir(), "nested"), "run", "type11", time.Unix(0, 0).UTC())
	m := &Metrics{AccuracyPercent: []float64{100}, ThicknessRMSE: []float64{0}}

	// WHEN the run is saved
	require.NoError(t, SaveRun(stem, m, 2, []SystemRow{{Materials: []int{1}, Thickness: []float64{5}, FitRMSE: 0}}))

	// THEN both files exist with the expected contents
	summary, err := os.ReadFile(SummaryPath(stem))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(summary), "\n"))
	systems, err := os.ReadFile(SystemsPath(stem))
	require.NoError(t, err)
	assert.Equal(t, "1,5,0\n", string(systems))
}
