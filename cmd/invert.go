package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ellipsfit/ellipsfit/film"
	"github.com/ellipsfit/ellipsfit/film/archive"
	"github.com/ellipsfit/ellipsfit/film/batch"
	"github.com/ellipsfit/ellipsfit/film/metrics"
)

var invertCmd = &cobra.Command{
	Use:   "invert",
	Short: "Recover materials and thicknesses for a window of archived spectra",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		stems, err := runInversion(ctx, cfg)
		if err != nil {
			logrus.Fatalf("Inversion failed: %v", err)
		}
		for _, stem := range stems {
			fmt.Println(metrics.SummaryPath(stem))
		}
		logrus.Info("Inversion complete.")
	},
}

// runInversion loads the archive window once and runs every sweep entry over it,
// writing a result-file pair per entry. It returns the stems written.
func runInversion(ctx context.Context, cfg *RunConfig) ([]string, error) {
	if cfg.Archive == "" {
		return nil, fmt.Errorf("config has no archive path")
	}
	problem, err := cfg.Problem()
	if err != nil {
		return nil, err
	}
	schema, err := Schema(problem)
	if err != nil {
		return nil, err
	}
	arc, err := archive.Load(cfg.Archive, schema)
	if err != nil {
		return nil, err
	}
	if err := arc.CheckAngles(problem.Grid.Angles); err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Archive, err)
	}
	count := cfg.Window.Count
	if count == 0 {
		count = arc.Rows - cfg.Window.Start
	}
	records, err := arc.Window(cfg.Window.Start, count)
	if err != nil {
		return nil, err
	}
	targets := make([]batch.Target, len(records))
	for i, rec := range records {
		targets[i] = batch.Target{System: cfg.Window.Start + i, Spectrum: rec.Target}
	}

	orch, err := batch.New(problem, cfg.Workers, film.NewRunKey(cfg.Seed))
	if err != nil {
		return nil, err
	}
	logrus.Infof("Loaded %d systems [%d, %d) from %s; catalog %v, %d layer(s), bounds [%g, %g] nm",
		len(targets), cfg.Window.Start, cfg.Window.Start+len(targets), cfg.Archive,
		problem.Catalog.Names(), problem.Layers, problem.Bounds.Min, problem.Bounds.Max)

	stems := make([]string, 0, len(cfg.Sweep))
	for _, policy := range cfg.Sweep {
		b, err := orch.Run(ctx, targets, policy)
		if err != nil {
			return stems, err
		}
		if err := ctx.Err(); err != nil {
			return stems, fmt.Errorf("%s interrupted: %w", policy.Tag(), err)
		}
		m, rows, err := scoreBatch(records, b)
		if err != nil {
			return stems, err
		}
		stem := metrics.ResultStem(cfg.OutputDir, cfg.OutputPrefix, policy.Tag(), time.Now())
		if err := metrics.SaveRun(stem, m, b.SecondsPerSystem(), rows); err != nil {
			return stems, err
		}
		stems = append(stems, stem)

		s := batch.Summarize(b)
		logrus.Infof("%s: accuracy %v %%, thickness RMSE %v nm, %.3fs per system, runtime %s",
			policy.Tag(), m.AccuracyPercent, m.ThicknessRMSE, b.SecondsPerSystem(), b.Wall.Round(time.Millisecond))
		if s.Infeasible > 0 || s.Failed > 0 {
			logrus.Warnf("%s: %d infeasible and %d failed of %d systems", policy.Tag(), s.Infeasible, s.Failed, s.Systems)
		}
	}
	return stems, nil
}

// scoreBatch compares a batch against the archive ground truth. A failed system is
// scored as material -1 at thickness 0 so it always counts as misidentified.
func scoreBatch(records []archive.Record, b *batch.Batch) (*metrics.Metrics, []metrics.SystemRow, error) {
	if len(records) != len(b.Outcomes) {
		return nil, nil, fmt.Errorf("%d records but %d outcomes", len(records), len(b.Outcomes))
	}
	n := len(records)
	trueMat, trueThick := make([][]float64, n), make([][]float64, n)
	predMat, predThick := make([][]float64, n), make([][]float64, n)
	rows := make([]metrics.SystemRow, n)
	for i, rec := range records {
		out := b.Outcomes[i]
		layers := len(rec.Materials)
		trueMat[i], trueThick[i] = make([]float64, layers), rec.Thickness
		predMat[i], predThick[i] = make([]float64, layers), make([]float64, layers)
		row := metrics.SystemRow{
			Materials: make([]int, layers),
			Thickness: make([]float64, layers),
			FitRMSE:   out.Result.RMSE(),
		}
		// An infeasible sentinel keeps material 0 and is scored like any prediction,
		// matching the reference accuracy numbers.
		for l := 0; l < layers; l++ {
			trueMat[i][l] = float64(rec.Materials[l])
			if out.Failed {
				row.Materials[l] = -1
				continue
			}
			row.Materials[l] = out.Result.Materials[l]
			row.Thickness[l] = out.Result.Thickness[l]
		}
		for l := 0; l < layers; l++ {
			predMat[i][l] = float64(row.Materials[l])
			predThick[i][l] = row.Thickness[l]
		}
		rows[i] = row
	}
	m, err := metrics.Accuracy(trueMat, trueThick, predMat, predThick)
	if err != nil {
		return nil, nil, err
	}
	return m, rows, nil
}
