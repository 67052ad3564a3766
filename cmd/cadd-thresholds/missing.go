package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/cadd-thresholds/internal/dataset"
	"github.com/inodb/cadd-thresholds/internal/genes"
	"github.com/inodb/cadd-thresholds/internal/variant"
)

func newMissingCmd() *cobra.Command {
	var gf geneFlags

	cmd := &cobra.Command{
		Use:   "missing <dataset>...",
		Short: "Report requested genes absent from a dataset",
		Example: `  cadd-thresholds missing 1.7_GRCh38 --genes "BRCA1,BRCA2,NOTAGENE"
  cadd-thresholds missing 1.6_GRCh37 1.7_GRCh38 --genes-file panel.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := dataset.ParseIDs(args)
			if err != nil {
				return usageError{err}
			}
			in, err := gf.input()
			if err != nil {
				return err
			}
			requested, err := genes.Resolve(in)
			if err != nil {
				return err
			}

			cache := dataset.NewCache(newLoader())
			if err := cache.Preload(cmd.Context(), ids, viper.GetInt("batch.workers")); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, id := range ids {
				t, err := cache.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				present, err := variant.GeneSymbols(t, geneColumn())
				if err != nil {
					return err
				}
				if len(ids) > 1 {
					fmt.Fprintf(out, "%s: ", id)
				}
				fmt.Fprintln(out, genes.MissingReport(requested, present))
			}
			return nil
		},
	}

	gf.register(cmd)
	return cmd
}
