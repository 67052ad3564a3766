package variant

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/cadd-thresholds/internal/genes"
)

var testColumns = []string{ColPHRED, ColClinicalSignificance, ColGeneName, ColConsequence}

func TestFilterByGenes(t *testing.T) {
	tbl := NewTable(testColumns, []Variant{
		{PHRED: 12, ClinicalSignificance: "Pathogenic", GeneName: "BRCA1;TP53"},
		{PHRED: 3, ClinicalSignificance: "Benign", GeneName: "EGFR"},
	})

	got, err := FilterByGenes(tbl, ColGeneName, genes.NewSet([]string{"TP53"}))
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "BRCA1;TP53", got.Row(0).GeneName)

	// Original untouched.
	assert.Equal(t, 2, tbl.Len())
}

func TestFilterByGenes_SeparatorsAndOrder(t *testing.T) {
	tbl := NewTable(testColumns, []Variant{
		{PHRED: 1, GeneName: "KRAS, NRAS"},
		{PHRED: 2, GeneName: "BRAF"},
		{PHRED: 3, GeneName: " HRAS  KRAS "},
		{PHRED: 4, GeneName: ""},
		{PHRED: 5, GeneName: "kras"},
	})

	got, err := FilterByGenes(tbl, ColGeneName, genes.NewSet([]string{"KRAS"}))
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, 1.0, got.Row(0).PHRED)
	assert.Equal(t, 3.0, got.Row(1).PHRED)
}

func TestFilterByGenes_MissingColumn(t *testing.T) {
	tbl := NewTable([]string{ColPHRED, ColClinicalSignificance}, nil)

	_, err := FilterByGenes(tbl, ColGeneSymbol, genes.NewSet([]string{"TP53"}))
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ColGeneSymbol, cfgErr.Column)
	assert.Contains(t, err.Error(), "GeneSymbol")
}

func TestWithUpperCase(t *testing.T) {
	tbl := NewTable(append(testColumns, "Origin"), []Variant{
		{GeneName: " kras ", Extra: map[string]string{"Origin": "germline"}},
	})

	up, err := tbl.WithUpperCase(ColGeneName)
	require.NoError(t, err)
	assert.Equal(t, "KRAS", up.Row(0).GeneName)
	assert.Equal(t, " kras ", tbl.Row(0).GeneName)

	up, err = tbl.WithUpperCase("Origin")
	require.NoError(t, err)
	assert.Equal(t, "GERMLINE", up.Row(0).Extra["Origin"])
	assert.Equal(t, "germline", tbl.Row(0).Extra["Origin"])

	_, err = tbl.WithUpperCase("Missing")
	assert.Error(t, err)
}

func TestScored(t *testing.T) {
	tbl := NewTable(testColumns, []Variant{
		{PHRED: 10},
		{PHRED: math.NaN()},
		{PHRED: 0},
	})
	assert.Equal(t, 2, tbl.Scored().Len())
}

func TestGeneSymbols(t *testing.T) {
	tbl := NewTable(testColumns, []Variant{
		{GeneName: "brca1;TP53"},
		{GeneName: "EGFR"},
	})
	set, err := GeneSymbols(tbl, ColGeneName)
	require.NoError(t, err)
	assert.Equal(t, []string{"BRCA1", "EGFR", "TP53"}, set.Sorted())
}

func TestField(t *testing.T) {
	v := Variant{Consequence: "missense_variant", Extra: map[string]string{"ReviewStatus": "reviewed"}}
	assert.Equal(t, "missense_variant", v.Field(ColConsequence))
	assert.Equal(t, "reviewed", v.Field("ReviewStatus"))
	assert.Equal(t, "", v.Field("Nope"))
}
