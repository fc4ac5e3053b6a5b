package crawler

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Matcher decides whether a fixture file name belongs to a target.
type Matcher interface {
	Match(fileName, target string) bool
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc func(fileName, target string) bool

// Match calls f.
func (f MatcherFunc) Match(fileName, target string) bool {
	return f(fileName, target)
}

// SubstringMatcher accepts any file name containing the target,
// case-sensitively. Target "func" picks up both func_1.json and
// other_func.json; set an exclusion substring to drop unwanted matches.
type SubstringMatcher struct{}

// Match reports whether fileName contains target.
func (SubstringMatcher) Match(fileName, target string) bool {
	return strings.Contains(fileName, target)
}

// ExactMatcher accepts a file only when its name without the extension equals
// the target.
type ExactMatcher struct{}

// Match reports whether the stem of fileName is target.
func (ExactMatcher) Match(fileName, target string) bool {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName)) == target
}

// Matcher names accepted by MatcherByName.
const (
	MatchSubstring = "substring"
	MatchExact     = "exact"
)

// MatcherByName resolves a configured matching strategy. An empty name picks
// the substring matcher.
func MatcherByName(name string) (Matcher, error) {
	switch name {
	case "", MatchSubstring:
		return SubstringMatcher{}, nil
	case MatchExact:
		return ExactMatcher{}, nil
	default:
		return nil, fmt.Errorf("unknown match strategy %q (want %q or %q)", name, MatchSubstring, MatchExact)
	}
}
