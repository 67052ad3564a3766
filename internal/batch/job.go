// Package batch pre-computes threshold-sweep metrics for every
// (dataset, panel) pair and publishes one compressed artifact per pair.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inodb/cadd-thresholds/internal/dataset"
	"github.com/inodb/cadd-thresholds/internal/duckdb"
	"github.com/inodb/cadd-thresholds/internal/genes"
	"github.com/inodb/cadd-thresholds/internal/metrics"
	"github.com/inodb/cadd-thresholds/internal/panel"
	"github.com/inodb/cadd-thresholds/internal/telemetry"
	"github.com/inodb/cadd-thresholds/internal/variant"
)

// Outcome classifies what happened to a (dataset, panel) pair.
type Outcome int

const (
	Written Outcome = iota
	Skipped
	Empty
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Written:
		return telemetry.OutcomeWritten
	case Skipped:
		return telemetry.OutcomeSkipped
	case Empty:
		return telemetry.OutcomeEmpty
	default:
		return telemetry.OutcomeFailed
	}
}

// Summary counts outcomes over a run.
type Summary struct {
	Written int
	Skipped int
	Empty   int
	Failed  int
}

func (s *Summary) add(o Outcome) {
	switch o {
	case Written:
		s.Written++
	case Skipped:
		s.Skipped++
	case Empty:
		s.Empty++
	case Failed:
		s.Failed++
	}
}

// Total is the number of pairs visited.
func (s Summary) Total() int {
	return s.Written + s.Skipped + s.Empty + s.Failed
}

// ResultSink receives every computed sweep alongside the published artifact.
type ResultSink interface {
	WriteMetrics(ctx context.Context, k duckdb.Key, rows []metrics.Row) error
}

// Config holds the fixed inputs of a run.
type Config struct {
	Datasets   []dataset.ID
	OutputDir  string
	RunDate    time.Time
	Workers    int
	GeneColumn string
}

// Job runs the panel metrics batch.
type Job struct {
	cfg      Config
	src      dataset.Source
	registry *panel.Registry
	sink     ResultSink
	recorder *telemetry.Recorder
	out      io.Writer
	logger   *zap.Logger
	runID    string
}

// NewJob creates a job reading datasets from src and panels from reg.
func NewJob(src dataset.Source, reg *panel.Registry, cfg Config) *Job {
	if cfg.GeneColumn == "" {
		cfg.GeneColumn = variant.ColGeneName
	}
	if cfg.RunDate.IsZero() {
		cfg.RunDate = time.Now()
	}
	return &Job{
		cfg:      cfg,
		src:      src,
		registry: reg,
		out:      io.Discard,
		logger:   zap.NewNop(),
		runID:    uuid.NewString(),
	}
}

// SetLogger sets the logger for the job.
func (j *Job) SetLogger(logger *zap.Logger) {
	j.logger = logger.With(zap.String("run_id", j.runID))
}

// SetOutput sets where the per-artifact progress lines are written.
func (j *Job) SetOutput(w io.Writer) {
	j.out = w
}

// SetRecorder sets the metrics recorder.
func (j *Job) SetRecorder(r *telemetry.Recorder) {
	j.recorder = r
}

// SetSink sets an optional store that also receives every computed sweep.
func (j *Job) SetSink(s ResultSink) {
	j.sink = s
}

// RunID identifies this run in logs and temporary file names.
func (j *Job) RunID() string {
	return j.runID
}

// Run processes every (dataset, panel) pair. Individual pair failures are
// logged and counted; the returned error is non-nil only when the output
// directory cannot be created or ctx is cancelled.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	if err := os.MkdirAll(j.cfg.OutputDir, 0755); err != nil {
		return sum, fmt.Errorf("create output directory: %w", err)
	}

	j.logger.Info("starting panel metrics batch",
		zap.Int("datasets", len(j.cfg.Datasets)),
		zap.Int("panels", j.registry.Len()),
		zap.String("output_dir", j.cfg.OutputDir))

	for _, id := range j.cfg.Datasets {
		if err := j.runDataset(ctx, id, &sum); err != nil {
			return sum, err
		}
	}

	j.recorder.Finished(time.Now())
	j.logger.Info("panel metrics batch finished",
		zap.Int("written", sum.Written),
		zap.Int("skipped", sum.Skipped),
		zap.Int("empty", sum.Empty),
		zap.Int("failed", sum.Failed))
	return sum, nil
}

type invalidator interface {
	Invalidate(id dataset.ID)
}

func (j *Job) runDataset(ctx context.Context, id dataset.ID, sum *Summary) error {
	// The table is loaded at most once, and only if some pair needs it.
	load := sync.OnceValues(func() (*variant.Table, error) {
		t, err := j.src.Load(ctx, id)
		if err != nil {
			j.logger.Error("failed to load dataset", zap.Stringer("dataset", id), zap.Error(err))
			return nil, err
		}
		return t.WithUpperCase(j.cfg.GeneColumn)
	})
	if inv, ok := j.src.(invalidator); ok {
		defer inv.Invalidate(id)
	}

	items := make(chan WorkItem)
	go func() {
		defer close(items)
		claimed := make(map[string]bool)
		for seq, e := range j.registry.Entries() {
			base := ArtifactBase(e.Name, id, j.cfg.RunDate)
			path := filepath.Join(j.cfg.OutputDir, base+".zip")
			item := WorkItem{
				Seq:       seq,
				Dataset:   id,
				Panel:     e,
				Path:      path,
				Entry:     base + ".csv",
				Duplicate: claimed[path],
			}
			claimed[path] = true
			select {
			case items <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := process(items, j.cfg.Workers, func(item WorkItem) WorkResult {
		return j.processItem(ctx, item, load)
	})

	err := OrderedCollect(results, func(r WorkResult) error {
		j.report(r)
		sum.add(r.Outcome)
		return nil
	})
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (j *Job) processItem(ctx context.Context, item WorkItem, load func() (*variant.Table, error)) WorkResult {
	if item.Duplicate {
		j.logger.Warn("panel name collides with an earlier panel after sanitizing",
			zap.String("panel", item.Panel.Name), zap.String("path", item.Path))
		return WorkResult{Outcome: Skipped}
	}
	if _, err := os.Stat(item.Path); err == nil {
		return WorkResult{Outcome: Skipped}
	}
	if len(item.Panel.Genes) == 0 {
		return WorkResult{Outcome: Empty}
	}
	if err := ctx.Err(); err != nil {
		return WorkResult{Outcome: Failed, Err: err}
	}

	start := time.Now()
	t, err := load()
	if err != nil {
		return WorkResult{Outcome: Failed, Err: fmt.Errorf("load dataset %s: %w", item.Dataset, err)}
	}
	filtered, err := variant.FilterByGenes(t, j.cfg.GeneColumn, genes.NewSet(item.Panel.Genes))
	if err != nil {
		return WorkResult{Outcome: Failed, Err: fmt.Errorf("filter by panel genes: %w", err)}
	}
	rows := metrics.Sweep(filtered)

	if err := j.publish(item.Path, item.Entry, rows); err != nil {
		return WorkResult{Outcome: Failed, Err: err}
	}

	if j.sink != nil {
		k := duckdb.Key{
			Dataset: item.Dataset.String(),
			Scope:   item.Panel.Name,
			RunDate: j.cfg.RunDate.Format(RunDateLayout),
		}
		if err := j.sink.WriteMetrics(ctx, k, rows); err != nil {
			j.logger.Warn("failed to store metrics",
				zap.String("panel", item.Panel.Name), zap.Stringer("dataset", item.Dataset), zap.Error(err))
		}
	}

	return WorkResult{Outcome: Written, Rows: rows, Elapsed: time.Since(start)}
}

// publish writes the archive under a temporary name in the destination
// directory and renames it into place, so readers never see a partial file.
func (j *Job) publish(path, entry string, rows []metrics.Row) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+j.runID+".tmp")
	if err := metrics.WriteArchive(tmp, entry, rows); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish archive: %w", err)
	}
	return nil
}

func (j *Job) report(r WorkResult) {
	ds := r.Item.Dataset.String()
	j.recorder.Artifact(ds, r.Outcome.String())

	switch r.Outcome {
	case Written:
		j.recorder.SweepDuration(ds, r.Elapsed)
		fmt.Fprintf(j.out, "Wrote '%s' into '%s'\n", r.Item.Entry, r.Item.Path)
	case Skipped:
		fmt.Fprintf(j.out, "Skipping '%s' (already exists)\n", r.Item.Path)
	case Empty:
		j.logger.Debug("panel has no genes", zap.String("panel", r.Item.Panel.Name), zap.String("dataset", ds))
	case Failed:
		j.logger.Error("failed to compute panel metrics",
			zap.String("panel", r.Item.Panel.Name), zap.String("dataset", ds), zap.Error(r.Err))
		fmt.Fprintf(j.out, "Failed '%s': %v\n", r.Item.Path, r.Err)
	}
}
