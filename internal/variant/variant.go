// Package variant holds the ClinVar/CADD variant table consumed by the
// threshold sweep and the gene filters.
package variant

import (
	"math"
	"slices"
	"strings"
)

// Well-known column names of the input table.
const (
	ColPHRED                = "PHRED"
	ColClinicalSignificance = "ClinicalSignificance"
	ColGeneName             = "GeneName"
	ColGeneSymbol           = "GeneSymbol"
	ColConsequence          = "Consequence"
)

// Variant is one row of a variant table. PHRED is NaN when the score is
// missing or not numeric.
type Variant struct {
	PHRED                float64
	ClinicalSignificance string
	GeneName             string
	GeneSymbol           string
	Consequence          string

	// Extra holds passthrough annotation columns keyed by column name.
	Extra map[string]string
}

// HasScore reports whether the row carries a usable PHRED score.
func (v *Variant) HasScore() bool {
	return !math.IsNaN(v.PHRED)
}

// Field returns the value of a text column by name.
func (v *Variant) Field(col string) string {
	switch col {
	case ColClinicalSignificance:
		return v.ClinicalSignificance
	case ColGeneName:
		return v.GeneName
	case ColGeneSymbol:
		return v.GeneSymbol
	case ColConsequence:
		return v.Consequence
	}
	return v.Extra[col]
}

// withField returns a copy of v with a text column replaced.
func (v Variant) withField(col, value string) Variant {
	switch col {
	case ColClinicalSignificance:
		v.ClinicalSignificance = value
	case ColGeneName:
		v.GeneName = value
	case ColGeneSymbol:
		v.GeneSymbol = value
	case ColConsequence:
		v.Consequence = value
	default:
		extra := make(map[string]string, len(v.Extra))
		for k, x := range v.Extra {
			extra[k] = x
		}
		extra[col] = value
		v.Extra = extra
	}
	return v
}

// Table is an immutable variant table. Operations that change rows or
// columns return a new Table and leave the receiver untouched.
type Table struct {
	columns []string
	rows    []Variant
}

// NewTable builds a Table from its column names and rows. Both slices are
// copied.
func NewTable(columns []string, rows []Variant) *Table {
	return &Table{
		columns: slices.Clone(columns),
		rows:    slices.Clone(rows),
	}
}

// Columns returns the table's column names.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// HasColumn reports whether the table carries col.
func (t *Table) HasColumn(col string) bool {
	return slices.Contains(t.columns, col)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns a copy of row i.
func (t *Table) Row(i int) Variant {
	return t.rows[i]
}

// Rows calls fn for each row in order. The pointer is only valid during the
// call and must not be modified.
func (t *Table) Rows(fn func(i int, v *Variant)) {
	for i := range t.rows {
		fn(i, &t.rows[i])
	}
}

// Where returns the rows matching keep, in their original order.
func (t *Table) Where(keep func(v *Variant) bool) *Table {
	out := &Table{columns: t.columns}
	for i := range t.rows {
		if keep(&t.rows[i]) {
			out.rows = append(out.rows, t.rows[i])
		}
	}
	return out
}

// Scored returns the rows with a usable PHRED score.
func (t *Table) Scored() *Table {
	return t.Where((*Variant).HasScore)
}

// WithUpperCase returns a copy of the table with col trimmed and
// upper-cased in every row.
func (t *Table) WithUpperCase(col string) (*Table, error) {
	if !t.HasColumn(col) {
		return nil, &ConfigurationError{Column: col}
	}
	out := &Table{columns: t.columns, rows: make([]Variant, len(t.rows))}
	for i := range t.rows {
		out.rows[i] = t.rows[i].withField(col, strings.ToUpper(strings.TrimSpace(t.rows[i].Field(col))))
	}
	return out, nil
}
