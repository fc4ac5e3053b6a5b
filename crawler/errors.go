package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRoot is returned when the search root is missing or not a
	// directory.
	ErrInvalidRoot = errors.New("invalid search root")

	// ErrMalformed marks a fixture file that could not be decoded.
	ErrMalformed = errors.New("malformed fixture")
)

// ProblemKind identifies why a record was skipped.
type ProblemKind string

const (
	ProblemNotObject      ProblemKind = "record_not_object"
	ProblemMissingInput   ProblemKind = "missing_input"
	ProblemInputNotObject ProblemKind = "input_not_object"
	ProblemMissingOutput  ProblemKind = "missing_output"
	ProblemBadDescription ProblemKind = "description_not_string"
	ProblemInvalidValue   ProblemKind = "invalid_value"
)

// RecordError describes a skipped record inside an otherwise readable file.
type RecordError struct {
	Path    string
	Index   int
	Kind    ProblemKind
	Message string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: record %d: %s", e.Path, e.Index, e.Message)
}
