package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/cadd-thresholds/internal/batch"
	"github.com/inodb/cadd-thresholds/internal/dataset"
	"github.com/inodb/cadd-thresholds/internal/duckdb"
	"github.com/inodb/cadd-thresholds/internal/genes"
	"github.com/inodb/cadd-thresholds/internal/metrics"
	"github.com/inodb/cadd-thresholds/internal/variant"
)

// ScopeAll labels stored sweeps over a whole dataset.
const ScopeAll = "all"

func newSweepCmd() *cobra.Command {
	var (
		gf      geneFlags
		outPath string
		dbPath  string
		scope   string
	)

	cmd := &cobra.Command{
		Use:   "sweep <dataset>",
		Short: "Compute metrics for PHRED thresholds 1..99",
		Long: `Compute the confusion matrix and classification metrics for every PHRED
threshold from 1 to 99. A variant is predicted pathogenic when its PHRED
score exceeds the threshold. Optionally restrict the variants to a gene list.`,
		Example: `  cadd-thresholds sweep 1.7_GRCh38
  cadd-thresholds sweep 1.7_GRCh38 --genes "BRCA1, BRCA2" -o brca.csv
  cadd-thresholds sweep 1.6_GRCh37 --genes-file panel.tsv -o panel.zip --db results.duckdb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := dataset.ParseID(args[0])
			if err != nil {
				return usageError{err}
			}
			in, err := gf.input()
			if err != nil {
				return err
			}
			return runSweep(cmd.Context(), cmd.ErrOrStderr(), id, in, outPath, dbPath, scope)
		},
	}

	gf.register(cmd)
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file; a .zip suffix writes a compressed archive (default: stdout)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Also store the rows in this DuckDB database")
	cmd.Flags().StringVar(&scope, "scope", "", "Label for stored rows (default: \"all\", or the sorted gene list)")

	return cmd
}

func runSweep(ctx context.Context, errOut io.Writer, id dataset.ID, in genes.Input, outPath, dbPath, scope string) error {
	t, err := loadTable(ctx, newLoader(), id)
	if err != nil {
		return err
	}
	scoped, list, err := scopeTable(t, in)
	if err != nil {
		return err
	}
	if list != nil {
		if err := reportMissing(errOut, t, list, scoped.Len() == 0); err != nil {
			return err
		}
	}
	logger.Info("sweeping thresholds",
		zap.Stringer("dataset", id),
		zap.Int("variants", scoped.Len()),
		zap.Int("scored", scoped.Scored().Len()))

	rows := metrics.Sweep(scoped)

	if strings.EqualFold(filepath.Ext(outPath), ".zip") {
		entry := strings.TrimSuffix(filepath.Base(outPath), filepath.Ext(outPath)) + ".csv"
		if err := metrics.WriteArchive(outPath, entry, rows); err != nil {
			return err
		}
	} else {
		out, err := openOutput(outPath)
		if err != nil {
			return err
		}
		if err := metrics.WriteCSV(out, rows); err != nil {
			out.Close()
			return fmt.Errorf("write metrics: %w", err)
		}
		if err := out.Close(); err != nil {
			return err
		}
	}

	if dbPath == "" {
		return nil
	}
	if scope == "" {
		scope = defaultScope(list)
	}
	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	k := duckdb.Key{Dataset: id.String(), Scope: scope, RunDate: time.Now().Format(batch.RunDateLayout)}
	if err := store.WriteMetrics(ctx, k, rows); err != nil {
		return fmt.Errorf("store metrics: %w", err)
	}
	logger.Info("stored metrics", zap.String("db", dbPath), zap.String("scope", scope))
	return nil
}

// defaultScope labels a sweep by its sorted, de-duplicated gene list.
func defaultScope(list []string) string {
	if list == nil {
		return ScopeAll
	}
	return strings.Join(genes.NewSet(list).Sorted(), ",")
}

// reportMissing writes the missing-gene report to w when some requested
// genes are absent from t, or always when the filter matched nothing.
func reportMissing(w io.Writer, t *variant.Table, requested []string, empty bool) error {
	present, err := variant.GeneSymbols(t, geneColumn())
	if err != nil {
		return err
	}
	if !empty && len(genes.Missing(requested, present)) == 0 {
		return nil
	}
	if empty {
		fmt.Fprintln(w, "No variants matched the gene list; all metrics are zero.")
	}
	fmt.Fprintln(w, genes.MissingReport(requested, present))
	return nil
}
