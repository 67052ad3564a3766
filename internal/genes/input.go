// Package genes turns analyst-supplied gene lists into normalized gene symbols.
package genes

import (
	"strings"
)

// Input is a gene list source: Text, File or Absent.
type Input interface {
	isInput()
}

// Text is a pasted gene list separated by commas and/or newlines.
type Text string

// File is an uploaded gene file on local disk.
type File struct {
	Path string
}

// Absent means no gene input was given.
type Absent struct{}

func (Text) isInput()   {}
func (File) isInput()   {}
func (Absent) isInput() {}

// NewInput builds an Input from the two optional UI fields. Blank text and
// an empty path count as not supplied. Supplying both is an error.
func NewInput(text, path string) (Input, error) {
	hasText := strings.TrimSpace(text) != ""
	hasFile := path != ""

	switch {
	case hasText && hasFile:
		return nil, &AmbiguousInputError{Both: true}
	case hasText:
		return Text(text), nil
	case hasFile:
		return File{Path: path}, nil
	}
	return Absent{}, nil
}

// Resolve returns the gene symbols named by in, in input order with
// duplicates kept. Absent input is an *AmbiguousInputError.
func Resolve(in Input) ([]string, error) {
	switch v := in.(type) {
	case Text:
		return ReadList(string(v)), nil
	case File:
		return ReadFile(v.Path)
	case Absent, nil:
		return nil, &AmbiguousInputError{}
	}
	return nil, &AmbiguousInputError{}
}

// ResolveGenes combines NewInput and Resolve.
func ResolveGenes(text, path string) ([]string, error) {
	in, err := NewInput(text, path)
	if err != nil {
		return nil, err
	}
	return Resolve(in)
}
