// Package telemetry exposes Prometheus metrics for the panel batch job.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Artifact outcomes.
const (
	OutcomeWritten = "written"
	OutcomeSkipped = "skipped"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
)

const namespace = "cadd_thresholds"

// Recorder holds the batch job's collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	artifacts     *prometheus.CounterVec
	sweepDuration *prometheus.HistogramVec
	lastRun       prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		artifacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "artifacts_total",
			Help:      "Panel metrics artifacts by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		sweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "sweep_duration_seconds",
			Help:      "Time to filter, sweep and write one panel.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"dataset"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last batch run finished.",
		}),
	}
	r.registry.MustRegister(r.artifacts, r.sweepDuration, r.lastRun)
	return r
}

// Registry returns the registry holding the collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Artifact counts one (dataset, panel) outcome.
func (r *Recorder) Artifact(dataset, outcome string) {
	if r == nil {
		return
	}
	r.artifacts.WithLabelValues(dataset, outcome).Inc()
}

// SweepDuration observes the time spent on one panel.
func (r *Recorder) SweepDuration(dataset string, d time.Duration) {
	if r == nil {
		return
	}
	r.sweepDuration.WithLabelValues(dataset).Observe(d.Seconds())
}

// Finished stamps the end of a run.
func (r *Recorder) Finished(t time.Time) {
	if r == nil {
		return
	}
	r.lastRun.Set(float64(t.Unix()))
}

// WriteTextfile writes the collected metrics in the node_exporter textfile
// format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
