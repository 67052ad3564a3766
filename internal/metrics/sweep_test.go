package metrics

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/cadd-thresholds/internal/variant"
)

func table(rows ...variant.Variant) *variant.Table {
	return variant.NewTable([]string{variant.ColPHRED, variant.ColClinicalSignificance, variant.ColGeneName}, rows)
}

func mixedTable() *variant.Table {
	return table(
		variant.Variant{PHRED: 0.5, ClinicalSignificance: "Benign"},
		variant.Variant{PHRED: 3, ClinicalSignificance: "Likely benign"},
		variant.Variant{PHRED: 12.7, ClinicalSignificance: "Uncertain significance"},
		variant.Variant{PHRED: 18, ClinicalSignificance: "Likely pathogenic"},
		variant.Variant{PHRED: 25, ClinicalSignificance: "Pathogenic"},
		variant.Variant{PHRED: 33, ClinicalSignificance: "Pathogenic, low penetrance"},
		variant.Variant{PHRED: 40, ClinicalSignificance: "Benign"},
		variant.Variant{PHRED: 99, ClinicalSignificance: "Pathogenic"},
		variant.Variant{PHRED: 120, ClinicalSignificance: "Pathogenic"},
		variant.Variant{PHRED: math.NaN(), ClinicalSignificance: "Pathogenic"},
	)
}

func TestSweep_EndToEnd(t *testing.T) {
	rows := Sweep(table(
		variant.Variant{PHRED: 5, ClinicalSignificance: "Pathogenic"},
		variant.Variant{PHRED: 50, ClinicalSignificance: "Benign"},
	))
	require.Len(t, rows, 99)

	r := rows[9]
	assert.Equal(t, 10, r.Threshold)
	assert.EqualValues(t, 0, r.TruePositives)
	assert.EqualValues(t, 1, r.FalseNegatives)
	assert.EqualValues(t, 0, r.TrueNegatives)
	assert.EqualValues(t, 1, r.FalsePositives)
	assert.Equal(t, 0.0, r.Precision)
	assert.Equal(t, 0.0, r.Recall)
	assert.Equal(t, 0.0, r.Specificity)
	assert.Equal(t, 0.0, r.Accuracy)
	assert.Equal(t, 1.0, r.FalsePositiveRate)

	// At 50 and above both are predicted benign.
	r = rows[49]
	assert.EqualValues(t, 1, r.TrueNegatives)
	assert.EqualValues(t, 1, r.FalseNegatives)
	assert.Equal(t, 0.5, r.Accuracy)
	assert.Equal(t, 0.5, r.BalancedAccuracy)
}

func TestSweep_EmptyInput(t *testing.T) {
	for _, tbl := range []*variant.Table{
		table(),
		table(variant.Variant{PHRED: math.NaN(), ClinicalSignificance: "Pathogenic"}),
	} {
		rows := Sweep(tbl)
		require.Len(t, rows, 99)
		for i, r := range rows {
			assert.Equal(t, Row{Threshold: i + 1}, r)
		}
	}
}

func TestSweep_Invariants(t *testing.T) {
	rows := Sweep(mixedTable())
	require.Len(t, rows, 99)

	prevBenign := int64(-1)
	for i, r := range rows {
		assert.Equal(t, i+1, r.Threshold)
		assert.EqualValues(t, 9, r.Total(), "threshold %d", r.Threshold)

		for _, v := range []float64{
			r.Precision, r.Recall, r.F1Score, r.F2Score, r.Accuracy,
			r.BalancedAccuracy, r.FalsePositiveRate, r.Specificity,
		} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}

		predictedBenign := r.TrueNegatives + r.FalseNegatives
		assert.GreaterOrEqual(t, predictedBenign, prevBenign)
		prevBenign = predictedBenign
	}
}

func TestSweep_KnownThreshold(t *testing.T) {
	rows := Sweep(mixedTable())

	// Threshold 20: benign predictions are 0.5, 3, 12.7, 18.
	// Truth pathogenic: 18, 25, 33, 99, 120.
	r := rows[19]
	assert.EqualValues(t, 3, r.TrueNegatives)
	assert.EqualValues(t, 1, r.FalsePositives)
	assert.EqualValues(t, 1, r.FalseNegatives)
	assert.EqualValues(t, 4, r.TruePositives)
	assert.InDelta(t, 0.8, r.Precision, 1e-12)
	assert.InDelta(t, 0.8, r.Recall, 1e-12)
	assert.InDelta(t, 0.8, r.F1Score, 1e-12)
	assert.InDelta(t, 0.8, r.F2Score, 1e-12)
	assert.InDelta(t, 7.0/9.0, r.Accuracy, 1e-12)
	assert.InDelta(t, 0.75, r.Specificity, 1e-12)
	assert.InDelta(t, 0.25, r.FalsePositiveRate, 1e-12)
	assert.InDelta(t, (0.8+0.75)/2, r.BalancedAccuracy, 1e-12)

	// The boundary is inclusive: PHRED 99 is benign at threshold 99.
	last := rows[98]
	assert.EqualValues(t, 1, last.TruePositives)
	assert.EqualValues(t, 4, last.FalseNegatives)
}

func TestFromCounts_ZeroDenominators(t *testing.T) {
	r := FromCounts(7, 0, 0, 0, 0)
	assert.Equal(t, Row{Threshold: 7}, r)

	r = FromCounts(1, 0, 0, 3, 0)
	assert.Equal(t, 0.0, r.Precision)
	assert.Equal(t, 0.0, r.F2Score)
	assert.Equal(t, 0.0, r.Specificity)
	assert.Equal(t, 0.0, r.FalsePositiveRate)
}

func TestSweep_DoesNotMutateInput(t *testing.T) {
	tbl := mixedTable()
	before := tbl.Row(3)
	Sweep(tbl)
	assert.Equal(t, before, tbl.Row(3))
	assert.Equal(t, "Likely pathogenic", tbl.Row(3).ClinicalSignificance)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Sweep(mixedTable())))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 100)
	assert.Equal(t, "Threshold,TrueNegatives,FalsePositives,FalseNegatives,TruePositives,Precision,Recall,F1Score,F2Score,Accuracy,BalancedAccuracy,FalsePositiveRate,Specificity", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,"))
	assert.True(t, strings.HasPrefix(lines[99], "99,"))
	assert.Equal(t, "20,3,1,1,4,0.8,0.8,0.8,0.8,0.7777777777777778,0.775,0.25,0.75", lines[20])
}

func TestArchiveRoundTrip(t *testing.T) {
	rows := Sweep(mixedTable())
	path := filepath.Join(t.TempDir(), "metrics.zip")

	require.NoError(t, WriteArchive(path, "metrics.csv", rows))
	got, err := ReadArchive(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadCSV_BadHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2\n"))
	assert.Error(t, err)
}
