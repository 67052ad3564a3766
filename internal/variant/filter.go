package variant

import (
	"fmt"
	"strings"

	"github.com/inodb/cadd-thresholds/internal/genes"
)

// ConfigurationError reports that a required column is absent.
type ConfigurationError struct {
	Column string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("variant table has no %q column", e.Column)
}

// FilterByGenes keeps the rows whose gene annotation in col names at least
// one member of symbols. The annotation is split on semicolons, commas and
// whitespace and compared without case folding, so callers should upper-case
// col first (see WithUpperCase). Row order is preserved.
func FilterByGenes(t *Table, col string, symbols genes.Set) (*Table, error) {
	if !t.HasColumn(col) {
		return nil, &ConfigurationError{Column: col}
	}
	return t.Where(func(v *Variant) bool {
		return matchesAny(v.Field(col), symbols)
	}), nil
}

func matchesAny(field string, symbols genes.Set) bool {
	for _, tok := range genes.SplitAnnotation(strings.TrimSpace(field)) {
		if symbols.Contains(tok) {
			return true
		}
	}
	return false
}

// GeneSymbols returns every upper-cased gene symbol named in col.
func GeneSymbols(t *Table, col string) (genes.Set, error) {
	if !t.HasColumn(col) {
		return nil, &ConfigurationError{Column: col}
	}
	set := make(genes.Set)
	t.Rows(func(_ int, v *Variant) {
		for _, tok := range genes.SplitAnnotation(v.Field(col)) {
			set[strings.ToUpper(tok)] = struct{}{}
		}
	})
	return set, nil
}
