package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/cadd-thresholds/internal/metrics"
)

const variantsCSV = `GeneName,ClinicalSignificance,PHRED,Consequence
BRCA1,Pathogenic,32.5,STOP_GAINED
brca1,Benign,3,SYNONYMOUS
TP53;WRAP53,Likely pathogenic,24,NON_SYNONYMOUS
EGFR,Benign,15,NON_SYNONYMOUS
KRAS,Uncertain significance,,INTRONIC
`

const panelsCSV = `PanelID,Name,Version,Genes,GeneCount,DateOfCheck
1,Hereditary breast cancer,2.1,BRCA1;BRCA2,2,2026-01-01
2,Empty panel,0.1,,0,2026-01-01
3,Lung/cancer,1.0,"['EGFR', 'KRAS']",2,2026-01-01
`

// setup isolates viper and points the data directory at a fixture.
func setup(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.7_GRCh38.csv"), []byte(variantsCSV), 0644))
	t.Setenv("CADD_THRESHOLDS_DATA_DIR", dir)
	t.Setenv("CADD_THRESHOLDS_DATA_PATTERN", "{id}.csv")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSweepCommand(t *testing.T) {
	dir := setup(t)
	outPath := filepath.Join(dir, "brca.csv")

	_, err := execute(t, "sweep", "1.7_GRCh38", "--genes", "brca1", "-o", outPath)
	require.NoError(t, err)

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := metrics.ReadCSV(f)
	require.NoError(t, err)
	require.Len(t, rows, 99)
	r := rows[9]
	assert.Equal(t, int64(1), r.TrueNegatives)
	assert.Equal(t, int64(1), r.TruePositives)
}

func TestSweepCommand_ArchiveAndStore(t *testing.T) {
	dir := setup(t)
	zipPath := filepath.Join(dir, "all.zip")
	dbPath := filepath.Join(dir, "results.duckdb")

	_, err := execute(t, "sweep", "1.7_GRCh38", "-o", zipPath, "--db", dbPath)
	require.NoError(t, err)

	rows, err := metrics.ReadArchive(zipPath)
	require.NoError(t, err)
	assert.Equal(t, int64(4), rows[0].Total(), "unscored row excluded")

	out, err := execute(t, "results", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1.7_GRCh38")
	assert.Contains(t, out, ScopeAll)
}

func TestSweepCommand_BothGeneInputs(t *testing.T) {
	dir := setup(t)
	list := filepath.Join(dir, "genes.txt")
	require.NoError(t, os.WriteFile(list, []byte("BRCA1\n"), 0644))

	_, err := execute(t, "sweep", "1.7_GRCh38", "--genes", "BRCA1", "--genes-file", list)
	msg, ok := geneInputMessage(err)
	require.True(t, ok)
	assert.Equal(t, "You can either put a list in the text field or upload a file, not both.", msg)
}

func TestSweepCommand_BadDataset(t *testing.T) {
	setup(t)
	_, err := execute(t, "sweep", "hg19")
	var ue usageError
	assert.ErrorAs(t, err, &ue)
}

func TestMissingCommand(t *testing.T) {
	setup(t)
	out, err := execute(t, "missing", "1.7_GRCh38", "--genes", "BRCA1, wrap53\nNOTAGENE")
	require.NoError(t, err)
	assert.Equal(t, "Genes not found in the dataset: NOTAGENE\n", out)
}

func TestPanelMetricsCommand(t *testing.T) {
	dir := setup(t)
	panels := filepath.Join(dir, "panels.csv")
	require.NoError(t, os.WriteFile(panels, []byte(panelsCSV), 0644))
	outDir := filepath.Join(dir, "panel_metrics")

	args := []string{"panel-metrics", panels,
		"--dataset", "1.7_GRCh38",
		"--run-date", "20260314",
		"--output-dir", outDir,
		"--metrics-file", filepath.Join(dir, "batch.prom"),
	}
	out, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 'Hereditary_breast_cancer_1.7_GRCh38_20260314.csv'")
	assert.Contains(t, out, "Wrote 'Lung_cancer_1.7_GRCh38_20260314.csv'")
	assert.Contains(t, out, "2 written, 0 skipped, 1 empty, 0 failed")

	prom, err := os.ReadFile(filepath.Join(dir, "batch.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "cadd_thresholds_batch_artifacts_total")

	out, err = execute(t, args...)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "(already exists)"))
}

func TestPanelMetricsCommand_UnreadableRegistry(t *testing.T) {
	dir := setup(t)
	_, err := execute(t, "panel-metrics", filepath.Join(dir, "nope.csv"))
	assert.Error(t, err)
}

func TestCategoriesAndConsequences(t *testing.T) {
	dir := setup(t)
	catPath := filepath.Join(dir, "categories.csv")
	_, err := execute(t, "categories", "1.7_GRCh38", "-o", catPath)
	require.NoError(t, err)
	data, err := os.ReadFile(catPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Gene,pathogenic,"))
	assert.Contains(t, string(data), "BRCA1,1,0,1,0,0,2\n")

	consPath := filepath.Join(dir, "consequences.csv")
	_, err = execute(t, "consequences", "1.7_GRCh38", "-o", consPath)
	require.NoError(t, err)
	data, err = os.ReadFile(consPath)
	require.NoError(t, err)
	assert.Equal(t,
		"Bin,Category,Consequence,Count\n"+
			"24-25,likely pathogenic,NON_SYNONYMOUS,1\n"+
			"32-33,pathogenic,STOP_GAINED,1\n",
		string(data))
}

func TestConfigSetGet(t *testing.T) {
	setup(t)
	_, err := execute(t, "config", "set", "batch.workers", "3")
	require.NoError(t, err)

	viper.Reset()
	out, err := execute(t, "config", "get", "batch.workers")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestConfigSet_ValidatesKeysAndValues(t *testing.T) {
	setup(t)
	var ue usageError

	_, err := execute(t, "config", "set", "batch.wokers", "3")
	require.ErrorAs(t, err, &ue)
	assert.ErrorContains(t, err, "batch.workers")

	_, err = execute(t, "config", "set", "batch.workers", "many")
	assert.ErrorAs(t, err, &ue)

	_, err = execute(t, "config", "set", "panelapp.backoff", "soon")
	assert.ErrorAs(t, err, &ue)

	_, err = execute(t, "config", "set", "batch.datasets", "1.7_GRCh38,hg19")
	assert.ErrorAs(t, err, &ue)

	_, err = execute(t, "config", "get", "nope")
	assert.ErrorAs(t, err, &ue)

	_, err = execute(t, "config", "set", "batch.datasets", "1.7_GRCh38, 1.6_GRCh37")
	require.NoError(t, err)
	viper.Reset()
	_, err = execute(t, "config", "get", "panelapp.backoff")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.7_GRCh38", "1.6_GRCh37"}, viper.GetStringSlice("batch.datasets"))
}

func TestSweepCommand_ReportsMissingGenes(t *testing.T) {
	dir := setup(t)
	outPath := filepath.Join(dir, "none.csv")

	out, err := execute(t, "sweep", "1.7_GRCh38", "--genes", "NOTAGENE", "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No variants matched the gene list")
	assert.Contains(t, out, "Genes not found in the dataset: NOTAGENE")

	out, err = execute(t, "sweep", "1.7_GRCh38", "--genes", "BRCA1,NOTAGENE", "-o", outPath)
	require.NoError(t, err)
	assert.NotContains(t, out, "No variants matched")
	assert.Contains(t, out, "Genes not found in the dataset: NOTAGENE")
}

func TestPanelMetricsCommand_MalformedPanelID(t *testing.T) {
	dir := setup(t)
	panels := filepath.Join(dir, "panels.csv")
	require.NoError(t, os.WriteFile(panels, []byte(
		"PanelID,Name,Version,Genes,GeneCount,DateOfCheck\n"+
			"1,Good,1.0,BRCA1,1,2026-01-01\n"+
			"x12,Bad id,1.0,EGFR,1,2026-01-01\n"), 0644))

	out, err := execute(t, "panel-metrics", panels,
		"--dataset", "1.7_GRCh38",
		"--run-date", "20260314",
		"--output-dir", filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 'Good_1.7_GRCh38_20260314.csv'")
	assert.Contains(t, out, "Wrote 'Bad_id_1.7_GRCh38_20260314.csv'")
}
