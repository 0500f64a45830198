// Package pipeline drives the analysis batch: load, clean, cluster,
// aggregate, join, fit, report. Each stage is a pure transformation
// returning a new value; the driver owns sequencing, persistence and
// logging. Any stage error halts the batch.
package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/statadvice/accidents/internal/clean"
	"github.com/statadvice/accidents/internal/cluster"
	"github.com/statadvice/accidents/internal/config"
	"github.com/statadvice/accidents/internal/fetcher"
	"github.com/statadvice/accidents/internal/model"
	"github.com/statadvice/accidents/internal/report"
	"github.com/statadvice/accidents/internal/series"
	"github.com/statadvice/accidents/internal/store"
	"github.com/statadvice/accidents/internal/tree"
)

// Pipeline orchestrates one analysis batch.
type Pipeline struct {
	cfg   *config.Config
	store store.Store
	out   io.Writer
}

// New creates a Pipeline. Reports are written to out (stdout by the CLI).
func New(cfg *config.Config, st store.Store, out io.Writer) *Pipeline {
	if out == nil {
		out = os.Stdout
	}
	return &Pipeline{cfg: cfg, store: st, out: out}
}

// Result summarizes a completed batch.
type Result struct {
	Run            model.AnalysisRun
	DistrictModels map[series.GroupID]*tree.Model
	ClusterModels  map[series.GroupID]*tree.Model
}

// Run executes the full batch over the given input files. OutDir
// receives the cleaned-table spreadsheet and the hotspot map.
func (p *Pipeline) Run(ctx context.Context, accidentsPath, weatherPath, outDir string) (*Result, error) {
	log := zap.L().With(zap.String("component", "pipeline"))

	run := model.AnalysisRun{
		ID:        uuid.New().String(),
		Status:    model.RunStatusRunning,
		EpsMeters: p.cfg.Cluster.EpsMeters,
		MinPts:    p.cfg.Cluster.MinPts,
		StartedAt: time.Now().UTC(),
	}
	if err := p.store.CreateRun(ctx, run); err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	result, err := p.run(ctx, &run, accidentsPath, weatherPath, outDir)

	run.FinishedAt = time.Now().UTC()
	if err != nil {
		run.Status = model.RunStatusFailed
		run.Error = err.Error()
	} else {
		run.Status = model.RunStatusComplete
	}
	if finishErr := p.store.FinishRun(ctx, run); finishErr != nil {
		log.Warn("failed to finish run record", zap.Error(finishErr))
	}
	if err != nil {
		return nil, err
	}

	result.Run = run
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, run *model.AnalysisRun, accidentsPath, weatherPath, outDir string) (*Result, error) {
	log := zap.L().With(zap.String("component", "pipeline"))

	// Load.
	raw, err := stage(log, "load", func() ([]model.RawRecord, error) {
		return loadAccidents(accidentsPath)
	})
	if err != nil {
		return nil, err
	}

	// Clean.
	records, _ := clean.Run(raw, p.cfg.Clean)
	if len(records) == 0 {
		return nil, eris.New("pipeline: no records survived cleaning")
	}

	// Cluster and join the assignment back on.
	assignment := cluster.Assign(records, cluster.Params{
		EpsMeters: p.cfg.Cluster.EpsMeters,
		MinPts:    p.cfg.Cluster.MinPts,
	})
	records = cluster.Apply(records, assignment)

	run.Records = len(records)
	run.Clusters = cluster.Count(assignment)
	run.Districts = countDistricts(records)

	// Persist and export the cleaned table.
	if err := p.store.ReplaceAccidents(ctx, records); err != nil {
		return nil, eris.Wrap(err, "pipeline: persist accidents")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "pipeline: create out dir")
	}
	if err := report.WriteAccidentsXLSX(filepath.Join(outDir, "accidents_clean.xlsx"), records); err != nil {
		return nil, err
	}

	// Weather.
	weather, err := stage(log, "weather", func() ([]model.WeatherObservation, error) {
		return fetcher.ReadWeatherXLSX(weatherPath)
	})
	if err != nil {
		return nil, err
	}

	// The same group pipeline runs twice: regression trees per district,
	// classification trees per hotspot cluster.
	districtModels, err := p.groupPipeline(ctx, records, weather, series.ByDistrict, tree.Regression)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: district models")
	}
	clusterModels, err := p.groupPipeline(ctx, records, weather, series.ByCluster, tree.Classification)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: cluster models")
	}

	// Rendered artifacts.
	report.WeekdayBars(p.out, records, p.cfg.Report.BarWidth)
	report.Rules(p.out, districtModels)
	report.Rules(p.out, clusterModels)
	if err := report.WriteHotspotMap(filepath.Join(outDir, "hotspots.html"), records); err != nil {
		return nil, err
	}

	return &Result{DistrictModels: districtModels, ClusterModels: clusterModels}, nil
}

// groupPipeline aggregates, joins weather, builds features, and fits
// one tree per group.
func (p *Pipeline) groupPipeline(
	ctx context.Context,
	records []model.AccidentRecord,
	weather []model.WeatherObservation,
	groupFn series.GroupFunc,
	kind tree.Kind,
) (map[series.GroupID]*tree.Model, error) {
	grid := series.ZeroFill(series.Build(records, groupFn))
	ft := series.JoinWeather(grid, weather)

	mode := series.LagContinuous
	if p.cfg.Lags.DailyReset {
		mode = series.LagDailyReset
	}

	matrices := make(map[series.GroupID]series.Matrix, len(grid.Groups))
	for _, g := range grid.Groups {
		matrices[g] = series.BuildMatrix(ft, g, p.cfg.Lags.Offsets, mode, kind == tree.Classification)
	}

	return tree.FitGroups(ctx, matrices, tree.Params{
		Kind:     kind,
		MaxDepth: p.cfg.Tree.MaxDepth,
		MinLeaf:  p.cfg.Tree.MinLeaf,
	}, p.cfg.Tree.Workers)
}

// stage wraps a loading step with duration logging.
func stage[T any](log *zap.Logger, name string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	log.Info("stage finished",
		zap.String("stage", name),
		zap.Duration("took", time.Since(start)),
		zap.Bool("ok", err == nil),
	)
	return v, err
}

func loadAccidents(path string) ([]model.RawRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return fetcher.ReadShapefile(path)
	}
	return fetcher.ReadGeoJSON(path)
}

func countDistricts(records []model.AccidentRecord) int {
	seen := map[string]bool{}
	for _, r := range records {
		seen[r.District] = true
	}
	return len(seen)
}
