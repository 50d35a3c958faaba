package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"
)

// ResultStem returns "<dir>/<prefix>_<tag>_<yymmdd>_<HHMMSS>"; the summary file is
// the stem plus ".txt" and the per-system file the stem plus "_results.txt".
func ResultStem(dir, prefix, tag string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s", prefix, tag, at.Format("060102_150405")))
}

// SummaryPath and SystemsPath name the two files written for one stem.
func SummaryPath(stem string) string { return stem + ".txt" }

func SystemsPath(stem string) string { return stem + "_results.txt" }

type summaryLine struct {
	Value float64 `csv:"value"`
}

// WriteSummary writes one value per line: accuracy per layer, thickness RMSE per
// layer, then the average seconds spent per system.
func WriteSummary(w io.Writer, m *Metrics, secondsPerSystem float64) error {
	values := append(m.Flatten(), secondsPerSystem)
	lines := make([]summaryLine, len(values))
	for i, v := range values {
		lines[i].Value = v
	}
	if err := gocsv.MarshalWithoutHeaders(lines, w); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

// SystemRow is one line of the per-system results file.
type SystemRow struct {
	Materials []int
	Thickness []float64
	FitRMSE   float64
}

// WriteSystems writes comma-separated rows of [material per layer..., thickness
// per layer..., fit RMSE]. The column count depends on the layer count, so rows
// are written field by field.
func WriteSystems(w io.Writer, rows []SystemRow) error {
	writer := csv.NewWriter(w)
	for i, r := range rows {
		rec := make([]string, 0, len(r.Materials)+len(r.Thickness)+1)
		for _, m := range r.Materials {
			rec = append(rec, strconv.Itoa(m))
		}
		for _, t := range r.Thickness {
			rec = append(rec, strconv.FormatFloat(t, 'g', -1, 64))
		}
		rec = append(rec, strconv.FormatFloat(r.FitRMSE, 'g', -1, 64))
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("writing system %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveRun writes the summary and per-system files for stem, creating the output
// directory when needed.
func SaveRun(stem string, m *Metrics, secondsPerSystem float64, rows []SystemRow) error {
	if err := os.MkdirAll(filepath.Dir(stem), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := writeFile(SummaryPath(stem), func(w io.Writer) error {
		return WriteSummary(w, m, secondsPerSystem)
	}); err != nil {
		return err
	}
	if err := writeFile(SystemsPath(stem), func(w io.Writer) error {
		return WriteSystems(w, rows)
	}); err != nil {
		return err
	}
	logrus.Debugf("Successfully wrote '%s' and '%s'", SummaryPath(stem), SystemsPath(stem))
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
