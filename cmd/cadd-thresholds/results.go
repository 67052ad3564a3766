package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/inodb/cadd-thresholds/internal/duckdb"
	"github.com/inodb/cadd-thresholds/internal/metrics"
)

func newResultsCmd() *cobra.Command {
	var (
		dbPath string
		k      duckdb.Key
	)

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List or print sweeps stored in a results database",
		Long: `Without --scope, list the stored (dataset, scope, run date) keys. With
--dataset, --scope and --run-date, print the stored rows as CSV.`,
		Example: `  cadd-thresholds results --db results.duckdb
  cadd-thresholds results --db results.duckdb --dataset 1.7_GRCh38 --scope all --run-date 20260101`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := duckdb.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			out := cmd.OutOrStdout()

			if k.Scope == "" {
				keys, err := store.Keys(cmd.Context(), k.Dataset)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DATASET\tSCOPE\tRUN DATE")
				for _, key := range keys {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", key.Dataset, key.Scope, key.RunDate)
				}
				return tw.Flush()
			}

			if k.Dataset == "" || k.RunDate == "" {
				return usageError{fmt.Errorf("--scope requires --dataset and --run-date")}
			}
			rows, err := store.LookupMetrics(cmd.Context(), k)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return fmt.Errorf("no stored metrics for %s / %s / %s", k.Dataset, k.Scope, k.RunDate)
			}
			return metrics.WriteCSV(out, rows)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Results database written by sweep or panel-metrics --db")
	cmd.Flags().StringVar(&k.Dataset, "dataset", "", "Dataset identifier")
	cmd.Flags().StringVar(&k.Scope, "scope", "", "Stored scope (panel name, gene list or \"all\")")
	cmd.Flags().StringVar(&k.RunDate, "run-date", "", "Run date, YYYYMMDD")
	cmd.MarkFlagRequired("db")
	return cmd
}
