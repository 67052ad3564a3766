// Package metrics computes confusion-matrix metrics for PHRED score
// thresholds and writes them as delimited tables.
package metrics

import (
	"github.com/inodb/cadd-thresholds/internal/clinvar"
	"github.com/inodb/cadd-thresholds/internal/variant"
)

// Threshold range swept by Sweep, inclusive.
const (
	MinThreshold = 1
	MaxThreshold = 99
)

// Row holds the confusion matrix and derived rates for one threshold.
// Variants with PHRED <= Threshold are predicted benign.
type Row struct {
	Threshold         int
	TrueNegatives     int64
	FalsePositives    int64
	FalseNegatives    int64
	TruePositives     int64
	Precision         float64
	Recall            float64
	F1Score           float64
	F2Score           float64
	Accuracy          float64
	BalancedAccuracy  float64
	FalsePositiveRate float64
	Specificity       float64
}

// Total returns the number of variants the row was computed over.
func (r Row) Total() int64 {
	return r.TrueNegatives + r.FalsePositives + r.FalseNegatives + r.TruePositives
}

// scored is the per-variant input of the sweep.
type scored struct {
	phred float64
	truth clinvar.Truth
}

// Sweep scores t at every integer threshold from MinThreshold to
// MaxThreshold and returns one Row per threshold in ascending order. Rows
// without a PHRED score are ignored. An empty input yields all-zero rows.
func Sweep(t *variant.Table) []Row {
	input := make([]scored, 0, t.Len())
	t.Rows(func(_ int, v *variant.Variant) {
		if v.HasScore() {
			input = append(input, scored{phred: v.PHRED, truth: clinvar.TruthOf(v.ClinicalSignificance)})
		}
	})

	rows := make([]Row, 0, MaxThreshold-MinThreshold+1)
	for th := MinThreshold; th <= MaxThreshold; th++ {
		if len(input) == 0 {
			rows = append(rows, Row{Threshold: th})
			continue
		}
		rows = append(rows, evaluate(input, th))
	}
	return rows
}

// evaluate builds the confusion matrix for a single threshold.
func evaluate(input []scored, threshold int) Row {
	var tn, fp, fn, tp int64
	limit := float64(threshold)
	for _, s := range input {
		predictPathogenic := s.phred > limit
		switch {
		case s.truth == clinvar.TruthPathogenic && predictPathogenic:
			tp++
		case s.truth == clinvar.TruthPathogenic:
			fn++
		case predictPathogenic:
			fp++
		default:
			tn++
		}
	}
	return FromCounts(threshold, tn, fp, fn, tp)
}

// FromCounts derives the rates of a Row from its confusion matrix. Any
// ratio with a zero denominator is 0.
func FromCounts(threshold int, tn, fp, fn, tp int64) Row {
	precision := ratio(tp, tp+fp)
	recall := ratio(tp, tp+fn)
	specificity := ratio(tn, tn+fp)

	var f2 float64
	if precision+recall > 0 {
		f2 = 5 * precision * recall / (4*precision + recall)
	}

	return Row{
		Threshold:         threshold,
		TrueNegatives:     tn,
		FalsePositives:    fp,
		FalseNegatives:    fn,
		TruePositives:     tp,
		Precision:         precision,
		Recall:            recall,
		F1Score:           ratio(2*tp, 2*tp+fp+fn),
		F2Score:           f2,
		Accuracy:          ratio(tp+tn, tp+tn+fp+fn),
		BalancedAccuracy:  (recall + specificity) / 2,
		FalsePositiveRate: ratio(fp, fp+tn),
		Specificity:       specificity,
	}
}

func ratio(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
