package batch

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/inodb/cadd-thresholds/internal/dataset"
)

// RunDateLayout formats the run date component of artifact names.
const RunDateLayout = "20060102"

var unsafeChars = regexp.MustCompile(`[^0-9A-Za-z._-]`)

// Sanitize makes a panel name safe to use as a file name component by
// replacing every character outside [0-9A-Za-z._-] with an underscore.
func Sanitize(name string) string {
	return unsafeChars.ReplaceAllString(strings.TrimSpace(name), "_")
}

// ArtifactBase returns the extension-less name shared by an artifact and
// the CSV entry inside it.
func ArtifactBase(panelName string, id dataset.ID, runDate time.Time) string {
	return Sanitize(panelName) + "_" + id.String() + "_" + runDate.Format(RunDateLayout)
}

// ArtifactPath returns where the artifact for (panelName, id, runDate) is
// published under dir.
func ArtifactPath(dir, panelName string, id dataset.ID, runDate time.Time) string {
	return filepath.Join(dir, ArtifactBase(panelName, id, runDate)+".zip")
}
