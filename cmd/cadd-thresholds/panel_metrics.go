package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/cadd-thresholds/internal/batch"
	"github.com/inodb/cadd-thresholds/internal/dataset"
	"github.com/inodb/cadd-thresholds/internal/duckdb"
	"github.com/inodb/cadd-thresholds/internal/panel"
	"github.com/inodb/cadd-thresholds/internal/telemetry"
)

func newPanelMetricsCmd() *cobra.Command {
	var (
		datasets    []string
		runDate     string
		dbPath      string
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "panel-metrics <panels.csv>",
		Short: "Pre-compute threshold metrics for every panel and dataset",
		Long: `Compute threshold metrics for every (dataset, panel) pair and write one
zip archive per pair to the output directory. Archives that already exist
are skipped, so the command can be re-run to resume an interrupted run.
Individual failures are reported and skipped; the command only fails when
the panel registry cannot be read.`,
		Example: `  cadd-thresholds panel-metrics data/paneldata/panels_summary.csv
  cadd-thresholds panel-metrics panels.csv --dataset 1.7_GRCh38 --workers 4 --metrics-file batch.prom`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(datasets) == 0 {
				datasets = viper.GetStringSlice("batch.datasets")
			}
			ids, err := dataset.ParseIDs(datasets)
			if err != nil {
				return usageError{err}
			}
			day := time.Now()
			if runDate != "" {
				day, err = time.Parse(batch.RunDateLayout, runDate)
				if err != nil {
					return usageError{fmt.Errorf("invalid --run-date %q: want YYYYMMDD", runDate)}
				}
			}

			reg, err := panel.LoadWithLogger(args[0], logger)
			if err != nil {
				return err
			}

			job := batch.NewJob(dataset.NewCache(newLoader()), reg, batch.Config{
				Datasets:   ids,
				OutputDir:  viper.GetString("batch.output_dir"),
				RunDate:    day,
				Workers:    viper.GetInt("batch.workers"),
				GeneColumn: geneColumn(),
			})
			job.SetLogger(logger)
			job.SetOutput(cmd.OutOrStdout())

			var rec *telemetry.Recorder
			if metricsFile != "" {
				rec = telemetry.NewRecorder()
				job.SetRecorder(rec)
			}

			if dbPath != "" {
				store, err := duckdb.Open(dbPath)
				if err != nil {
					logger.Error("results database unavailable, continuing without it", zap.Error(err))
				} else {
					defer store.Close()
					job.SetSink(store)
				}
			}

			sum, runErr := job.Run(cmd.Context())
			if runErr != nil {
				logger.Error("panel metrics batch stopped", zap.Error(runErr))
			}
			if err := rec.WriteTextfile(metricsFile); err != nil {
				logger.Error("failed to write metrics file", zap.Error(err))
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d written, %d skipped, %d empty, %d failed\n",
				sum.Written, sum.Skipped, sum.Empty, sum.Failed)
			if errors.Is(runErr, context.Canceled) {
				return runErr
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&datasets, "dataset", nil, "Dataset identifiers (default: batch.datasets)")
	cmd.Flags().StringVar(&runDate, "run-date", "", "Run date stamped into artifact names, YYYYMMDD (default: today)")
	cmd.Flags().Int("workers", 0, "Concurrent panels per dataset (default: batch.workers)")
	cmd.Flags().String("output-dir", "", "Artifact directory (default: batch.output_dir)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Also store every sweep in this DuckDB database")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format to this path")
	viper.BindPFlag("batch.workers", cmd.Flags().Lookup("workers"))
	viper.BindPFlag("batch.output_dir", cmd.Flags().Lookup("output-dir"))

	return cmd
}
