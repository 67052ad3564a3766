package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodb/cadd-thresholds/internal/dataset"
	"github.com/inodb/cadd-thresholds/internal/summary"
)

func newCategoriesCmd() *cobra.Command {
	var (
		gf      geneFlags
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "categories <dataset>",
		Short: "Count variants per gene and ClinVar category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := dataset.ParseID(args[0])
			if err != nil {
				return usageError{err}
			}
			in, err := gf.input()
			if err != nil {
				return err
			}
			t, err := loadTable(cmd.Context(), newLoader(), id)
			if err != nil {
				return err
			}
			scoped, _, err := scopeTable(t, in)
			if err != nil {
				return err
			}
			rows, err := summary.CategoryCounts(scoped, geneColumn())
			if err != nil {
				return err
			}

			out, err := openOutput(outPath)
			if err != nil {
				return err
			}
			if err := summary.WriteCategoryCSV(out, rows); err != nil {
				out.Close()
				return fmt.Errorf("write category counts: %w", err)
			}
			return out.Close()
		},
	}

	gf.register(cmd)
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output CSV file (default: stdout)")
	return cmd
}

func newConsequencesCmd() *cobra.Command {
	var (
		gf      geneFlags
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "consequences <dataset>",
		Short: "Histogram pathogenic variants by PHRED bin and consequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := dataset.ParseID(args[0])
			if err != nil {
				return usageError{err}
			}
			in, err := gf.input()
			if err != nil {
				return err
			}
			t, err := loadTable(cmd.Context(), newLoader(), id)
			if err != nil {
				return err
			}
			scoped, _, err := scopeTable(t, in)
			if err != nil {
				return err
			}

			out, err := openOutput(outPath)
			if err != nil {
				return err
			}
			if err := summary.WriteConsequenceCSV(out, summary.ConsequenceBins(scoped)); err != nil {
				out.Close()
				return fmt.Errorf("write consequence histogram: %w", err)
			}
			return out.Close()
		},
	}

	gf.register(cmd)
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output CSV file (default: stdout)")
	return cmd
}
