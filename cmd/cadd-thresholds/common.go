package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/cadd-thresholds/internal/dataset"
	"github.com/inodb/cadd-thresholds/internal/genes"
	"github.com/inodb/cadd-thresholds/internal/variant"
)

// geneFlags are the two mutually exclusive ways of naming a gene list.
type geneFlags struct {
	text string
	file string
}

func (g *geneFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&g.text, "genes", "g", "", "Gene symbols separated by commas or newlines")
	cmd.Flags().StringVar(&g.file, "genes-file", "", "Delimited or one-per-line file whose first column lists gene symbols")
}

func (g *geneFlags) input() (genes.Input, error) {
	return genes.NewInput(g.text, g.file)
}

func newLoader() *dataset.Loader {
	l := dataset.NewLoader(viper.GetString("data.dir"), viper.GetString("data.pattern"))
	l.SetLogger(logger)
	return l
}

func geneColumn() string {
	return viper.GetString("gene_column")
}

// loadTable loads a dataset and upper-cases its gene column when present.
func loadTable(ctx context.Context, src dataset.Source, id dataset.ID) (*variant.Table, error) {
	t, err := src.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.HasColumn(geneColumn()) {
		return t, nil
	}
	return t.WithUpperCase(geneColumn())
}

// scopeTable narrows t to the gene list named by in and returns that list.
// Absent input keeps the whole table and returns a nil list.
func scopeTable(t *variant.Table, in genes.Input) (*variant.Table, []string, error) {
	if _, ok := in.(genes.Absent); ok {
		return t, nil, nil
	}
	list, err := genes.Resolve(in)
	if err != nil {
		return nil, nil, err
	}
	filtered, err := variant.FilterByGenes(t, geneColumn(), genes.NewSet(list))
	if err != nil {
		return nil, nil, err
	}
	return filtered, list, nil
}

// openOutput returns stdout for an empty path, otherwise a new file.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
