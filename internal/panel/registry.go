// Package panel models the gene panel registry: a table of named panels and
// their gene lists, stored as CSV and refreshed from PanelApp.
package panel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Registry CSV columns.
const (
	ColPanelID     = "PanelID"
	ColName        = "Name"
	ColVersion     = "Version"
	ColGenes       = "Genes"
	ColGeneCount   = "GeneCount"
	ColDateOfCheck = "DateOfCheck"
)

var registryHeader = []string{ColPanelID, ColName, ColVersion, ColGenes, ColGeneCount, ColDateOfCheck}

// DateLayout is the format of DateOfCheck.
const DateLayout = "2006-01-02"

// Entry is one gene panel.
type Entry struct {
	PanelID     int
	Name        string
	Version     string
	Genes       []string
	GeneCount   int
	DateOfCheck string
}

// Summary is the id and version of a panel as listed by PanelApp.
type Summary struct {
	PanelID int
	Name    string
	Version string
}

// Registry is an ordered, read-only collection of panels.
type Registry struct {
	entries []Entry
	byName  map[string]int
}

// NewRegistry builds a registry from entries. When names repeat, Lookup
// returns the first.
func NewRegistry(entries []Entry) *Registry {
	r := &Registry{
		entries: append([]Entry(nil), entries...),
		byName:  make(map[string]int, len(entries)),
	}
	for i, e := range r.entries {
		if _, dup := r.byName[e.Name]; !dup {
			r.byName[e.Name] = i
		}
	}
	return r
}

// Entries returns the panels in registry order.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Len returns the number of panels.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Lookup returns the panel with the given name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// byID returns the index of the panel with the given id.
func (r *Registry) byID() map[int]int {
	m := make(map[int]int, len(r.entries))
	for i, e := range r.entries {
		if _, dup := m[e.PanelID]; !dup {
			m[e.PanelID] = i
		}
	}
	return m
}

var geneSep = regexp.MustCompile(`[;,]`)

// ParseGenes splits a registry Genes field into upper-cased symbols,
// stripping list punctuation left over from serialized lists.
func ParseGenes(field string) []string {
	var out []string
	for _, tok := range geneSep.Split(field, -1) {
		tok = strings.Trim(strings.TrimSpace(tok), `[]'"`)
		tok = strings.ToUpper(strings.TrimSpace(tok))
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// Load reads a registry CSV. Name and Genes columns are required; the rest
// are optional.
func Load(path string) (*Registry, error) {
	return LoadWithLogger(path, nil)
}

// LoadWithLogger is Load with malformed optional fields reported to logger.
func LoadWithLogger(path string, logger *zap.Logger) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open panel registry: %w", err)
	}
	defer f.Close()

	r, err := ReadWithLogger(f, logger)
	if err != nil {
		return nil, fmt.Errorf("panel registry %s: %w", path, err)
	}
	return r, nil
}

// Read parses a registry CSV from r.
func Read(r io.Reader) (*Registry, error) {
	return ReadWithLogger(r, nil)
}

// ReadWithLogger parses a registry CSV from r. A row whose PanelID or
// GeneCount is not an integer is kept with that field defaulted, and a
// warning is logged.
func ReadWithLogger(r io.Reader, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	for _, required := range []string{ColName, ColGenes} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var entries []Entry
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		e := Entry{
			Name:        field(rec, ColName),
			Version:     field(rec, ColVersion),
			Genes:       ParseGenes(field(rec, ColGenes)),
			DateOfCheck: field(rec, ColDateOfCheck),
		}
		if s := field(rec, ColPanelID); s != "" {
			if id, err := strconv.Atoi(s); err == nil {
				e.PanelID = id
			} else {
				logger.Warn("invalid PanelID in panel registry; using 0",
					zap.String("panel", e.Name), zap.String("value", s))
			}
		}
		e.GeneCount = len(e.Genes)
		if s := field(rec, ColGeneCount); s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				e.GeneCount = n
			} else {
				logger.Warn("invalid GeneCount in panel registry; using gene list length",
					zap.String("panel", e.Name), zap.String("value", s))
			}
		}
		entries = append(entries, e)
	}
	return NewRegistry(entries), nil
}

// Write serializes the registry as CSV.
func (r *Registry) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(registryHeader); err != nil {
		return err
	}
	for _, e := range r.entries {
		rec := []string{
			strconv.Itoa(e.PanelID),
			e.Name,
			e.Version,
			strings.Join(e.Genes, ";"),
			strconv.Itoa(e.GeneCount),
			e.DateOfCheck,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes the registry to path, replacing any existing file atomically.
func (r *Registry) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp registry: %w", err)
	}
	tmpPath := tmp.Name()

	if err := r.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close registry: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename registry: %w", err)
	}
	return nil
}
