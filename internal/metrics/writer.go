package metrics

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Header is the column order of an exported metrics table.
var Header = []string{
	"Threshold",
	"TrueNegatives",
	"FalsePositives",
	"FalseNegatives",
	"TruePositives",
	"Precision",
	"Recall",
	"F1Score",
	"F2Score",
	"Accuracy",
	"BalancedAccuracy",
	"FalsePositiveRate",
	"Specificity",
}

// WriteCSV writes rows as a comma-delimited table with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(Header, ",") + "\n"); err != nil {
		return err
	}

	values := make([]string, len(Header))
	for _, r := range rows {
		values[0] = strconv.Itoa(r.Threshold)
		values[1] = strconv.FormatInt(r.TrueNegatives, 10)
		values[2] = strconv.FormatInt(r.FalsePositives, 10)
		values[3] = strconv.FormatInt(r.FalseNegatives, 10)
		values[4] = strconv.FormatInt(r.TruePositives, 10)
		values[5] = formatRate(r.Precision)
		values[6] = formatRate(r.Recall)
		values[7] = formatRate(r.F1Score)
		values[8] = formatRate(r.F2Score)
		values[9] = formatRate(r.Accuracy)
		values[10] = formatRate(r.BalancedAccuracy)
		values[11] = formatRate(r.FalsePositiveRate)
		values[12] = formatRate(r.Specificity)

		if _, err := bw.WriteString(strings.Join(values, ",") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// formatRate renders a rate with the shortest exact representation.
func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteArchive writes rows as a CSV named entryName inside a new
// deflate-compressed zip file at path.
func WriteArchive(path, entryName string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	if err := writeZip(f, entryName, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync archive: %w", err)
	}
	return f.Close()
}

func writeZip(w io.Writer, entryName string, rows []Row) error {
	zw := zip.NewWriter(w)
	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:   filepath.ToSlash(entryName),
		Method: zip.Deflate,
	})
	if err != nil {
		return fmt.Errorf("create archive entry: %w", err)
	}
	if err := WriteCSV(entry, rows); err != nil {
		return fmt.Errorf("write archive entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}

// ReadArchive reads the first CSV entry of a zip written by WriteArchive.
func ReadArchive(path string) ([]Row, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	if len(zr.File) == 0 {
		return nil, fmt.Errorf("archive %s is empty", path)
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("open archive entry: %w", err)
	}
	defer rc.Close()

	return ReadCSV(rc)
}

// ReadCSV parses a table written by WriteCSV.
func ReadCSV(r io.Reader) ([]Row, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil, fmt.Errorf("metrics table: missing header")
	}
	if got := strings.TrimRight(scanner.Text(), "\r"); got != strings.Join(Header, ",") {
		return nil, fmt.Errorf("metrics table: unexpected header %q", got)
	}

	var rows []Row
	line := 1
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}
		row, err := parseRow(text)
		if err != nil {
			return nil, fmt.Errorf("metrics table line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading metrics table: %w", err)
	}
	return rows, nil
}

func parseRow(text string) (Row, error) {
	fields := strings.Split(text, ",")
	if len(fields) != len(Header) {
		return Row{}, fmt.Errorf("expected %d fields, got %d", len(Header), len(fields))
	}

	var r Row
	var err error
	if r.Threshold, err = strconv.Atoi(fields[0]); err != nil {
		return Row{}, err
	}
	counts := []*int64{&r.TrueNegatives, &r.FalsePositives, &r.FalseNegatives, &r.TruePositives}
	for i, dst := range counts {
		if *dst, err = strconv.ParseInt(fields[1+i], 10, 64); err != nil {
			return Row{}, err
		}
	}
	rates := []*float64{
		&r.Precision, &r.Recall, &r.F1Score, &r.F2Score, &r.Accuracy,
		&r.BalancedAccuracy, &r.FalsePositiveRate, &r.Specificity,
	}
	for i, dst := range rates {
		if *dst, err = strconv.ParseFloat(fields[5+i], 64); err != nil {
			return Row{}, err
		}
	}
	return r, nil
}
