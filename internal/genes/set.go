package genes

import (
	"regexp"
	"sort"
	"strings"
)

// Set is a read-only collection of canonical gene symbols.
type Set map[string]struct{}

// NewSet builds a Set from symbols, trimming and upper-casing each one.
func NewSet(symbols []string) Set {
	s := make(Set, len(symbols))
	for _, g := range symbols {
		if g = normalize(g); g != "" {
			s[g] = struct{}{}
		}
	}
	return s
}

// Contains reports whether g is in the set.
func (s Set) Contains(g string) bool {
	_, ok := s[g]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for g := range s {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

var annotationSep = regexp.MustCompile(`[;,\s]+`)

// SplitAnnotation splits a multi-valued gene annotation field on
// semicolons, commas and runs of whitespace. Tokens are not case-folded.
func SplitAnnotation(field string) []string {
	parts := annotationSep.Split(field, -1)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Missing returns the requested symbols absent from present, sorted and
// de-duplicated.
func Missing(requested []string, present Set) []string {
	miss := make(Set)
	for _, g := range requested {
		if !present.Contains(g) {
			miss[g] = struct{}{}
		}
	}
	return miss.Sorted()
}

// MissingReport describes the outcome of checking requested against present.
func MissingReport(requested []string, present Set) string {
	if miss := Missing(requested, present); len(miss) > 0 {
		return "Genes not found in the dataset: " + strings.Join(miss, ", ")
	}
	return "All genes were found in the dataset. Genes: " + strings.Join(NewSet(requested).Sorted(), ", ")
}
