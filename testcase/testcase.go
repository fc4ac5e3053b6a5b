// Package testcase defines the input/output pair a donated function is
// exercised with.
package testcase

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// TestCase is one (input, output, description) triple. Values are held in the
// JSON value model and copied on the way in and out, so a TestCase cannot be
// mutated after construction.
type TestCase struct {
	input       map[string]any
	output      any
	description string
}

// New builds a TestCase from the given values. Input and output are
// normalized with Normalize; values that have no JSON representation are
// rejected.
func New(input map[string]any, output any, description string) (TestCase, error) {
	in := make(map[string]any, len(input))
	for k, v := range input {
		nv, err := Normalize(v)
		if err != nil {
			return TestCase{}, fmt.Errorf("normalizing input %q: %w", k, err)
		}
		in[k] = nv
	}

	out, err := Normalize(output)
	if err != nil {
		return TestCase{}, fmt.Errorf("normalizing output: %w", err)
	}

	return TestCase{input: in, output: out, description: description}, nil
}

// MustNew is like New but panics on error.
func MustNew(input map[string]any, output any, description string) TestCase {
	tc, err := New(input, output, description)
	if err != nil {
		panic(err)
	}
	return tc
}

// Input returns a copy of the keyword arguments.
func (tc TestCase) Input() map[string]any {
	in, _ := deepCopy(tc.input).(map[string]any)
	if in == nil {
		in = map[string]any{}
	}
	return in
}

// Output returns a copy of the expected return value.
func (tc TestCase) Output() any {
	return deepCopy(tc.output)
}

// Description returns the informational text, empty when absent.
func (tc TestCase) Description() string {
	return tc.description
}

// Equal reports whether both cases have deeply equal input, output and
// description.
func (tc TestCase) Equal(other TestCase) bool {
	return tc.description == other.description &&
		cmp.Equal(tc.input, other.input, cmpopts.EquateEmpty()) &&
		cmp.Equal(tc.output, other.output)
}

// String renders the case for log output.
func (tc TestCase) String() string {
	if tc.description != "" {
		return fmt.Sprintf("%s: %v -> %v", tc.description, tc.input, tc.output)
	}
	return fmt.Sprintf("%v -> %v", tc.input, tc.output)
}
