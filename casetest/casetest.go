// Package casetest runs a Go function against the fixture test cases donated
// for it.
//
// A donated test is an ordinary test function that hands its target name and
// the function under test to Run:
//
//	func TestDonateAdd(t *testing.T) {
//		casetest.RunTyped(t, "add", func(in struct{ A, B int }) int {
//			return in.A + in.B
//		})
//	}
//
// Fixture files whose name contains "add" (add.json, add_edge.yaml, ...) are
// collected from the search root, and every case becomes a subtest. Naming
// donated tests with the TestDonate prefix lets `donate run` select them.
package casetest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spachava753/donate/crawler"
	"github.com/spachava753/donate/internal/config"
	"github.com/spachava753/donate/store"
	"github.com/spachava753/donate/testcase"
)

// SearchRootEnv overrides the default search root. `donate run` sets it to
// the directory it was pointed at.
const SearchRootEnv = config.EnvSearchRoot

// Func is a donated function: it receives a case's input as keyword
// arguments and returns the value to compare with the expected output.
type Func func(input map[string]any) (any, error)

type options struct {
	root        string
	store       *store.Store
	crawlerOpts []crawler.Option
}

// Option configures Run.
type Option func(*options)

// WithRoot sets the directory searched for fixture files.
func WithRoot(dir string) Option {
	return func(o *options) {
		o.root = dir
	}
}

// WithStore makes Run collect into st, so cases registered there beforehand
// run alongside the ones found on disk.
func WithStore(st *store.Store) Option {
	return func(o *options) {
		o.store = st
	}
}

// WithCrawlerOptions passes options through to the crawler.
func WithCrawlerOptions(opts ...crawler.Option) Option {
	return func(o *options) {
		o.crawlerOpts = append(o.crawlerOpts, opts...)
	}
}

// Run collects the cases for target and runs fn once per case in a subtest.
// The test is skipped when no cases are found.
func Run(t *testing.T, target string, fn Func, opts ...Option) {
	t.Helper()

	cases, err := collect(t.Context(), target, opts...)
	if err != nil {
		t.Fatalf("collecting test cases for %s: %v", target, err)
	}
	if len(cases) == 0 {
		t.Skipf("no test cases found for %s", target)
	}

	for i, tc := range cases {
		t.Run(caseName(i, tc), func(t *testing.T) {
			check(t, fn, tc)
		})
	}
}

// collect gathers target's cases. The crawl stops when ctx is done.
func collect(ctx context.Context, target string, opts ...Option) ([]testcase.TestCase, error) {
	o := options{root: os.Getenv(SearchRootEnv)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = store.New()
	}

	c := crawler.New(o.store, o.crawlerOpts...)
	return c.Collect(ctx, target, o.root)
}

// RunTyped is Run for a function taking a parameter struct. Each case's input
// is decoded into In through its JSON field names.
func RunTyped[In, Out any](t *testing.T, target string, fn func(In) Out, opts ...Option) {
	t.Helper()

	Run(t, target, func(input map[string]any) (any, error) {
		var in In
		if err := decodeInput(input, &in); err != nil {
			return nil, err
		}
		return fn(in), nil
	}, opts...)
}

// reporter is the part of testing.TB that check reports through.
type reporter interface {
	Helper()
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
}

func check(t reporter, fn Func, tc testcase.TestCase) {
	t.Helper()

	got, err := fn(tc.Input())
	if err != nil {
		t.Fatalf("calling with %v: %v", tc.Input(), err)
		return
	}

	normalized, err := testcase.Normalize(got)
	if err != nil {
		t.Fatalf("result %v has no JSON representation: %v", got, err)
		return
	}

	if diff := cmp.Diff(tc.Output(), normalized); diff != "" {
		t.Errorf("output mismatch for input %v (-want +got):\n%s", tc.Input(), diff)
	}
}

func decodeInput(input map[string]any, dst any) error {
	data, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("encoding input: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding input into %T: %w", dst, err)
	}
	return nil
}

func caseName(i int, tc testcase.TestCase) string {
	if d := strings.TrimSpace(tc.Description()); d != "" {
		return d
	}
	return fmt.Sprintf("case_%d", i+1)
}
