package crawler

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/spachava753/donate/testcase"
)

// Decoder parses raw file content into a generic document: an object, or an
// array of objects.
type Decoder func(data []byte) (any, error)

// Field names of an on-disk record.
const (
	fieldInput       = "input"
	fieldOutput      = "output"
	fieldDescription = "description"
)

// tomlCasesKey holds the array of tables in a multi-case TOML document, since
// TOML has no top-level arrays.
const tomlCasesKey = "cases"

func decodeJSON(data []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return doc, nil
}

func decodeYAML(data []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return doc, nil
}

func decodeTOML(data []byte) (any, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}
	if len(doc) == 0 {
		return nil, nil
	}

	if cases, ok := doc[tomlCasesKey]; ok && len(doc) == 1 {
		switch c := cases.(type) {
		case []map[string]any:
			out := make([]any, len(c))
			for i, m := range c {
				out[i] = m
			}
			return out, nil
		case []any:
			return c, nil
		}
	}
	return doc, nil
}

// defaultDecoders returns the built-in decoders keyed by lowercase extension.
func defaultDecoders() map[string]Decoder {
	return map[string]Decoder{
		".json": decodeJSON,
		".yaml": decodeYAML,
		".yml":  decodeYAML,
		".toml": decodeTOML,
	}
}

// SupportedExtensions lists the extensions decoded out of the box.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(defaultDecoders()))
	for ext := range defaultDecoders() {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// records flattens a decoded document into its raw records.
func records(doc any) ([]any, error) {
	normalized, err := testcase.Normalize(doc)
	if err != nil {
		return nil, err
	}

	switch d := normalized.(type) {
	case nil:
		return nil, errors.New("empty document")
	case map[string]any:
		return []any{d}, nil
	case []any:
		return d, nil
	default:
		return nil, fmt.Errorf("top level must be an object or an array of objects, got %T", normalized)
	}
}

// parseRecord validates one raw record and builds its test case.
func parseRecord(raw any) (testcase.TestCase, ProblemKind, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return testcase.TestCase{}, ProblemNotObject, fmt.Errorf("record must be an object, got %T", raw)
	}

	in, ok := m[fieldInput]
	if !ok {
		return testcase.TestCase{}, ProblemMissingInput, fmt.Errorf("record has no %q field", fieldInput)
	}
	input, ok := in.(map[string]any)
	if !ok {
		return testcase.TestCase{}, ProblemInputNotObject, fmt.Errorf("%q must be an object, got %T", fieldInput, in)
	}

	output, ok := m[fieldOutput]
	if !ok {
		return testcase.TestCase{}, ProblemMissingOutput, fmt.Errorf("record has no %q field", fieldOutput)
	}

	var description string
	if d, ok := m[fieldDescription]; ok && d != nil {
		s, ok := d.(string)
		if !ok {
			return testcase.TestCase{}, ProblemBadDescription, fmt.Errorf("%q must be a string, got %T", fieldDescription, d)
		}
		description = s
	}

	tc, err := testcase.New(input, output, description)
	if err != nil {
		return testcase.TestCase{}, ProblemInvalidValue, err
	}
	return tc, "", nil
}
