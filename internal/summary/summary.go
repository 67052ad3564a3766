// Package summary aggregates a variant table into the per-gene and
// per-consequence count tables shown next to the threshold sweep.
package summary

import (
	"math"
	"sort"
	"strconv"

	"github.com/inodb/cadd-thresholds/internal/clinvar"
	"github.com/inodb/cadd-thresholds/internal/variant"
)

// GeneCounts holds the number of variants per category for one gene.
type GeneCounts struct {
	Gene   string
	Counts map[clinvar.Category]int
}

// Total returns the number of variants counted for the gene.
func (g GeneCounts) Total() int {
	n := 0
	for _, c := range g.Counts {
		n += c
	}
	return n
}

// CategoryCounts counts variants per (value of col, category). Rows are
// ordered by total count descending, ties broken by gene name. Rows with
// an empty col value are counted under "".
func CategoryCounts(t *variant.Table, col string) ([]GeneCounts, error) {
	if !t.HasColumn(col) {
		return nil, &variant.ConfigurationError{Column: col}
	}

	byGene := make(map[string]map[clinvar.Category]int)
	t.Rows(func(_ int, v *variant.Variant) {
		g := v.Field(col)
		m, ok := byGene[g]
		if !ok {
			m = make(map[clinvar.Category]int, len(clinvar.AllCategories))
			byGene[g] = m
		}
		m[clinvar.Categorize(v.ClinicalSignificance)]++
	})

	out := make([]GeneCounts, 0, len(byGene))
	for g, m := range byGene {
		out = append(out, GeneCounts{Gene: g, Counts: m})
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].Total(), out[j].Total()
		if ti != tj {
			return ti > tj
		}
		return out[i].Gene < out[j].Gene
	})
	return out, nil
}

// NumBins is the number of unit-width PHRED bins covering [0, 100].
const NumBins = 100

// ConsequenceKey identifies one cell of the consequence histogram.
type ConsequenceKey struct {
	Bin         int
	Category    clinvar.Category
	Consequence string
}

// ConsequenceCount is one non-empty histogram cell.
type ConsequenceCount struct {
	ConsequenceKey
	Count int
}

// BinOf returns the histogram bin for a PHRED score: bin i covers [i, i+1),
// and 100 falls into the last bin. ok is false for scores outside [0, 100]
// and for missing scores.
func BinOf(phred float64) (bin int, ok bool) {
	if math.IsNaN(phred) || phred < 0 || phred > NumBins {
		return 0, false
	}
	bin = int(math.Floor(phred))
	if bin == NumBins {
		bin = NumBins - 1
	}
	return bin, true
}

// ConsequenceBins counts pathogenic and likely pathogenic variants per
// (PHRED bin, category, consequence). Cells are ordered by bin, then
// category (pathogenic first), then consequence.
func ConsequenceBins(t *variant.Table) []ConsequenceCount {
	counts := make(map[ConsequenceKey]int)
	t.Rows(func(_ int, v *variant.Variant) {
		cat := clinvar.Categorize(v.ClinicalSignificance)
		if cat != clinvar.Pathogenic && cat != clinvar.LikelyPathogenic {
			return
		}
		bin, ok := BinOf(v.PHRED)
		if !ok {
			return
		}
		counts[ConsequenceKey{Bin: bin, Category: cat, Consequence: v.Consequence}]++
	})

	out := make([]ConsequenceCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, ConsequenceCount{ConsequenceKey: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Bin != b.Bin {
			return a.Bin < b.Bin
		}
		if a.Category != b.Category {
			return a.Category == clinvar.Pathogenic
		}
		return a.Consequence < b.Consequence
	})
	return out
}

// BinLabel renders a bin as "i-(i+1)".
func BinLabel(bin int) string {
	return strconv.Itoa(bin) + "-" + strconv.Itoa(bin+1)
}
