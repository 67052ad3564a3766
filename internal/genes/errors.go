package genes

import (
	"errors"
	"fmt"
)

// User-facing messages for gene input problems.
const (
	MsgBothInputs    = "You can either put a list in the text field or upload a file, not both."
	MsgNoInput       = "You must input a gene list or upload a file."
	MsgInputFallback = "Something went wrong while processing your input."
)

// AmbiguousInputError reports that both or neither of the pasted text and
// the uploaded file were supplied.
type AmbiguousInputError struct {
	Both bool
}

func (e *AmbiguousInputError) Error() string {
	if e.Both {
		return "gene input: both a gene list and a file were supplied"
	}
	return "gene input: neither a gene list nor a file was supplied"
}

// ReadFileError reports a gene file that could not be opened or parsed.
type ReadFileError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ReadFileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("read gene file %q: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("read gene file %q: %s", e.Path, e.Reason)
}

func (e *ReadFileError) Unwrap() error { return e.Err }

// GeneInputError reports a gene file that parsed but held no gene symbols.
type GeneInputError struct {
	Path string
}

func (e *GeneInputError) Error() string {
	return fmt.Sprintf("gene file %q: no genes found", e.Path)
}

// UserMessage renders err as text suitable for showing to the analyst.
func UserMessage(err error) string {
	var ambiguous *AmbiguousInputError
	var readErr *ReadFileError
	var inputErr *GeneInputError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &ambiguous):
		if ambiguous.Both {
			return MsgBothInputs
		}
		return MsgNoInput
	case errors.As(err, &readErr):
		return "Could not read the uploaded gene file: " + readErr.Reason + "."
	case errors.As(err, &inputErr):
		return "Could not parse uploaded gene file or no genes found in the uploaded file."
	}
	return MsgInputFallback
}
