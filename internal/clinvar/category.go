// Package clinvar normalizes ClinVar clinical-significance labels.
package clinvar

import (
	"fmt"
	"strings"
)

// Category is a normalized clinical-significance class.
type Category string

// Categories, in the order used for display and counting.
const (
	Pathogenic       Category = "pathogenic"
	LikelyPathogenic Category = "likely pathogenic"
	Benign           Category = "benign"
	LikelyBenign     Category = "likely benign"
	Unknown          Category = "unknown"
)

// AllCategories lists every Category.
var AllCategories = []Category{Pathogenic, LikelyPathogenic, Benign, LikelyBenign, Unknown}

// Truth is the binary ground-truth label scored by the threshold sweep.
type Truth uint8

const (
	TruthBenign Truth = iota
	TruthPathogenic
)

func (t Truth) String() string {
	if t == TruthPathogenic {
		return "pathogenic"
	}
	return "benign"
}

// Categorize maps a free-text ClinicalSignificance value to a Category.
// Matching is case-insensitive and the first matching rule wins, so
// "Pathogenic, low penetrance" stays pathogenic. Labels naming neither class,
// such as "Uncertain significance" or "drug response", are Unknown.
func Categorize(label string) Category {
	l := strings.ToLower(label)
	likely := strings.Contains(l, "likely")

	switch {
	case (strings.Contains(l, "pathogenic") && !likely) ||
		strings.Contains(l, "pathogenic/likely risk allele"):
		return Pathogenic
	case strings.Contains(l, "likely pathogenic"):
		return LikelyPathogenic
	case strings.Contains(l, "benign") && !likely:
		return Benign
	case strings.Contains(l, "likely benign"):
		return LikelyBenign
	}
	return Unknown
}

// CategorizeValue stringifies v before categorizing it. A nil value is Unknown.
func CategorizeValue(v any) Category {
	if v == nil {
		return Unknown
	}
	if s, ok := v.(string); ok {
		return Categorize(s)
	}
	return Categorize(fmt.Sprint(v))
}

// BinaryTruth collapses a Category into the pathogenic/benign ground truth.
// Unknown counts as benign.
func BinaryTruth(c Category) Truth {
	if c == Pathogenic || c == LikelyPathogenic {
		return TruthPathogenic
	}
	return TruthBenign
}

// TruthOf categorizes label and collapses it in one step.
func TruthOf(label string) Truth {
	return BinaryTruth(Categorize(label))
}
