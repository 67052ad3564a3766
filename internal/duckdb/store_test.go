package duckdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/cadd-thresholds/internal/metrics"
	"github.com/inodb/cadd-thresholds/internal/variant"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRows() []metrics.Row {
	return metrics.Sweep(variant.NewTable(
		[]string{variant.ColPHRED, variant.ColClinicalSignificance},
		[]variant.Variant{
			{PHRED: 5, ClinicalSignificance: "Pathogenic"},
			{PHRED: 50, ClinicalSignificance: "Benign"},
			{PHRED: 25, ClinicalSignificance: "Likely pathogenic"},
		},
	))
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
}

func TestWriteAndLookupMetrics(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()
	k := Key{Dataset: "1.7_GRCh38", Scope: "Hereditary breast cancer", RunDate: "20260101"}

	rows := sampleRows()
	require.NoError(t, s.WriteMetrics(ctx, k, rows))

	got, err := s.LookupMetrics(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	got, err = s.LookupMetrics(ctx, Key{Dataset: "1.6_GRCh37", Scope: k.Scope, RunDate: k.RunDate})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteMetrics_Replaces(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()
	k := Key{Dataset: "1.7_GRCh38", Scope: "all", RunDate: "20260101"}

	require.NoError(t, s.WriteMetrics(ctx, k, sampleRows()))
	require.NoError(t, s.WriteMetrics(ctx, k, sampleRows()))

	got, err := s.LookupMetrics(ctx, k)
	require.NoError(t, err)
	assert.Len(t, got, 99)
}

func TestKeys(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	require.NoError(t, s.WriteMetrics(ctx, Key{"1.7_GRCh38", "B", "20260101"}, sampleRows()))
	require.NoError(t, s.WriteMetrics(ctx, Key{"1.7_GRCh38", "A", "20260101"}, sampleRows()))
	require.NoError(t, s.WriteMetrics(ctx, Key{"1.6_GRCh37", "A", "20260101"}, sampleRows()))

	keys, err := s.Keys(ctx, "1.7_GRCh38")
	require.NoError(t, err)
	assert.Equal(t, []Key{{"1.7_GRCh38", "A", "20260101"}, {"1.7_GRCh38", "B", "20260101"}}, keys)

	keys, err = s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestWriteMetrics_FailedInsertKeepsPreviousRows(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()
	k := Key{Dataset: "1.7_GRCh38", Scope: "all", RunDate: "20260101"}

	rows := sampleRows()
	require.NoError(t, s.WriteMetrics(ctx, k, rows))

	// Two rows for the same threshold violate the primary key on flush.
	dup := []metrics.Row{rows[0], rows[0]}
	assert.Error(t, s.WriteMetrics(ctx, k, dup))

	got, err := s.LookupMetrics(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}
