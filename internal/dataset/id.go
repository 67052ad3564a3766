// Package dataset loads and caches ClinVar/CADD variant tables, one per
// CADD version and genome release.
package dataset

import (
	"fmt"
	"regexp"
	"strings"
)

// ID identifies a dataset by CADD version and genome release, e.g.
// "1.7_GRCh38".
type ID struct {
	CADDVersion string
	Release     string
}

var idPattern = regexp.MustCompile(`^(\d+(?:\.\d+)*)_(GRCh3[78])$`)

// DefaultIDs are the datasets processed by the panel batch job.
var DefaultIDs = []ID{
	{"1.6", "GRCh37"},
	{"1.6", "GRCh38"},
	{"1.7", "GRCh37"},
	{"1.7", "GRCh38"},
}

// ParseID parses a "<version>_<release>" dataset identifier. The release
// is matched case-insensitively and normalized to "GRCh37"/"GRCh38".
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '_'); i > 0 {
		s = s[:i+1] + normalizeRelease(s[i+1:])
	}
	m := idPattern.FindStringSubmatch(s)
	if m == nil {
		return ID{}, fmt.Errorf("invalid dataset identifier %q (want e.g. 1.7_GRCh38)", s)
	}
	return ID{CADDVersion: m[1], Release: m[2]}, nil
}

// ParseIDs parses every identifier in ss.
func ParseIDs(ss []string) ([]ID, error) {
	ids := make([]ID, 0, len(ss))
	for _, s := range ss {
		id, err := ParseID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func normalizeRelease(r string) string {
	if strings.HasPrefix(strings.ToUpper(r), "GRCH") {
		return "GRCh" + r[4:]
	}
	return r
}

func (id ID) String() string {
	return id.CADDVersion + "_" + id.Release
}
