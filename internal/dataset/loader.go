package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/inodb/cadd-thresholds/internal/variant"
)

// DefaultPattern names a dataset file relative to the data directory.
// "{id}" is replaced by the dataset identifier.
const DefaultPattern = "{id}.csv.gz"

// Source supplies variant tables by dataset.
type Source interface {
	Load(ctx context.Context, id ID) (*variant.Table, error)
}

// Loader reads variant tables from delimited files (optionally gzipped)
// using DuckDB's CSV reader.
type Loader struct {
	dir     string
	pattern string
	logger  *zap.Logger
}

// NewLoader creates a loader for files under dir named by pattern.
func NewLoader(dir, pattern string) *Loader {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Loader{dir: dir, pattern: pattern, logger: zap.NewNop()}
}

// SetLogger sets the logger for load progress messages.
func (l *Loader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Path returns the file backing id.
func (l *Loader) Path(id ID) string {
	return filepath.Join(l.dir, strings.ReplaceAll(l.pattern, "{id}", id.String()))
}

// Load reads the dataset identified by id.
func (l *Loader) Load(ctx context.Context, id ID) (*variant.Table, error) {
	path := l.Path(id)
	l.logger.Info("loading dataset", zap.Stringer("dataset", id), zap.String("path", path))

	t, err := ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", id, err)
	}
	l.logger.Info("loaded dataset", zap.Stringer("dataset", id), zap.Int("variants", t.Len()))
	return t, nil
}

// ReadFile reads a variant table with a header row. Every column is read as
// text; PHRED values that are empty or not numeric become NaN.
func ReadFile(ctx context.Context, path string) (*variant.Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	query := fmt.Sprintf(`SELECT * FROM read_csv('%s', header=true, all_varchar=true)`,
		strings.ReplaceAll(path, "'", "''"))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out []variant.Variant
	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		out = append(out, toVariant(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants: %w", err)
	}

	return variant.NewTable(columns, out), nil
}

func toVariant(columns []string, values []sql.NullString) variant.Variant {
	v := variant.Variant{PHRED: math.NaN()}
	for i, col := range columns {
		s := values[i].String
		switch col {
		case variant.ColPHRED:
			if values[i].Valid {
				if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
					v.PHRED = f
				}
			}
		case variant.ColClinicalSignificance:
			v.ClinicalSignificance = s
		case variant.ColGeneName:
			v.GeneName = s
		case variant.ColGeneSymbol:
			v.GeneSymbol = s
		case variant.ColConsequence:
			v.Consequence = s
		default:
			if !values[i].Valid {
				continue
			}
			if v.Extra == nil {
				v.Extra = make(map[string]string)
			}
			v.Extra[col] = s
		}
	}
	return v
}
