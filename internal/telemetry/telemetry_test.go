package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Artifact("1.7_GRCh38", OutcomeWritten)
	r.Artifact("1.7_GRCh38", OutcomeWritten)
	r.Artifact("1.7_GRCh38", OutcomeSkipped)
	r.SweepDuration("1.7_GRCh38", 20*time.Millisecond)
	r.Finished(time.Unix(1700000000, 0))

	families, err := r.Registry().Gather()
	require.NoError(t, err)
	assert.Len(t, families, 3)

	path := filepath.Join(t.TempDir(), "batch.prom")
	require.NoError(t, r.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `cadd_thresholds_batch_artifacts_total{dataset="1.7_GRCh38",outcome="written"} 2`)
	assert.Contains(t, string(data), `cadd_thresholds_batch_artifacts_total{dataset="1.7_GRCh38",outcome="skipped"} 1`)
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Artifact("x", OutcomeFailed)
	r.SweepDuration("x", time.Second)
	r.Finished(time.Now())
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
	assert.Nil(t, r.Registry())
}
