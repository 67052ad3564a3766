package genes

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"
)

// sampleSize is how much of a gene file is inspected to guess its delimiter.
const sampleSize = 4096

// separatorPriority is the order in which delimiters are looked for.
var separatorPriority = []rune{'\t', ';', ',', '\n', ' '}

// ReadList splits pasted text on commas and newlines, trims and upper-cases
// each symbol and drops blanks.
func ReadList(text string) []string {
	text = strings.ReplaceAll(text, ",", "\n")
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if g := normalize(line); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// GuessSeparator returns the first of tab, semicolon, comma, newline and
// space found in sample. ok is false when none is present.
func GuessSeparator(sample string) (sep rune, ok bool) {
	for _, r := range separatorPriority {
		if strings.ContainsRune(sample, r) {
			return r, true
		}
	}
	return 0, false
}

// ReadFile reads gene symbols from the first column of a headerless
// delimited file. When the file cannot be parsed as a table it is read as
// one symbol per line.
func ReadFile(path string) ([]string, error) {
	if path == "" {
		return nil, &ReadFileError{Reason: "missing file path"}
	}

	sample, err := readSample(path)
	if err != nil {
		return nil, &ReadFileError{Path: path, Reason: "could not read the beginning of the file", Err: err}
	}

	sep, _ := GuessSeparator(sample)

	var genes []string
	if sep == '\n' {
		genes, err = readLines(path)
	} else if genes, err = readFirstColumn(path, sep); err != nil {
		genes, err = readLines(path)
	}
	if err != nil {
		return nil, &ReadFileError{Path: path, Reason: "reading the file failed", Err: err}
	}

	if len(genes) == 0 {
		return nil, &GeneInputError{Path: path}
	}
	return genes, nil
}

func readSample(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, sampleSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimPrefix(strings.ToValidUTF8(string(buf[:n]), ""), bom), nil
}

const bom = "\ufeff"

// openSkippingBOM opens path and discards a leading UTF-8 byte order mark.
func openSkippingBOM(path string) (*os.File, *bufio.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	br := bufio.NewReader(f)
	if b, err := br.Peek(len(bom)); err == nil && string(b) == bom {
		br.Discard(len(bom))
	}
	return f, br, nil
}

// readFirstColumn parses path as a headerless table split on sep. A zero sep
// means no delimiter was seen, so each record holds a single field.
func readFirstColumn(path string, sep rune) ([]string, error) {
	f, br, err := openSkippingBOM(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(br)
	if sep != 0 {
		r.Comma = sep
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	var out []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 {
			continue
		}
		if g := normalize(rec[0]); g != "" {
			out = append(out, g)
		}
	}
	return out, nil
}

func readLines(path string) ([]string, error) {
	f, br, err := openSkippingBOM(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(br)
	for scanner.Scan() {
		if g := normalize(scanner.Text()); g != "" {
			out = append(out, g)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
