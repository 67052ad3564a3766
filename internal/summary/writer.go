package summary

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/inodb/cadd-thresholds/internal/clinvar"
)

// WriteCategoryCSV writes gene counts as Gene,<category...>,Total.
func WriteCategoryCSV(w io.Writer, rows []GeneCounts) error {
	cw := csv.NewWriter(w)
	header := []string{"Gene"}
	for _, c := range clinvar.AllCategories {
		header = append(header, string(c))
	}
	header = append(header, "Total")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range rows {
		rec := []string{r.Gene}
		for _, c := range clinvar.AllCategories {
			rec = append(rec, strconv.Itoa(r.Counts[c]))
		}
		rec = append(rec, strconv.Itoa(r.Total()))
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteConsequenceCSV writes histogram cells as Bin,Category,Consequence,Count.
func WriteConsequenceCSV(w io.Writer, cells []ConsequenceCount) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Bin", "Category", "Consequence", "Count"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, c := range cells {
		if err := cw.Write([]string{BinLabel(c.Bin), string(c.Category), c.Consequence, strconv.Itoa(c.Count)}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
