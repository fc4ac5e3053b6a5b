// Package store holds the deduplicated test cases collected for each target
// function.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/spachava753/donate/testcase"
)

// ErrInvalidArgument is returned when a register call is missing its target
// name or carries values that cannot form a test case.
var ErrInvalidArgument = errors.New("invalid argument")

// Store maps target names to their ordered test cases.
type Store struct {
	mu     sync.Mutex
	cases  map[string][]testcase.TestCase
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for registration events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		cases:  make(map[string][]testcase.TestCase),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register builds a test case from the given values and adds it under target.
func (s *Store) Register(target string, input map[string]any, output any, description string) error {
	if target == "" {
		return fmt.Errorf("registering test case: target name must be provided: %w", ErrInvalidArgument)
	}

	tc, err := testcase.New(input, output, description)
	if err != nil {
		return fmt.Errorf("registering test case for %s: %v: %w", target, err, ErrInvalidArgument)
	}

	s.insert(target, tc)
	return nil
}

// RegisterCase adds a pre-built test case under target. A case equal to one
// already registered for the same target is skipped.
func (s *Store) RegisterCase(target string, tc testcase.TestCase) error {
	if target == "" {
		return fmt.Errorf("registering test case: target name must be provided: %w", ErrInvalidArgument)
	}

	s.insert(target, tc)
	return nil
}

// RegisterCases adds each case in order.
func (s *Store) RegisterCases(target string, cases []testcase.TestCase) error {
	if target == "" {
		return fmt.Errorf("registering test cases: target name must be provided: %w", ErrInvalidArgument)
	}

	for _, tc := range cases {
		s.insert(target, tc)
	}
	return nil
}

// insert appends tc unless the target already holds an equal case. The scan
// and the append happen under one lock.
func (s *Store) insert(target string, tc testcase.TestCase) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.cases[target] {
		if existing.Equal(tc) {
			s.logger.Info("test case already registered",
				"target", target,
				"description", tc.Description())
			return false
		}
	}

	s.cases[target] = append(s.cases[target], tc)
	s.logger.Debug("registered test case",
		"target", target,
		"description", tc.Description(),
		"count", len(s.cases[target]))
	return true
}

// Get returns the cases registered for target in insertion order. Unknown
// targets yield an empty slice.
func (s *Store) Get(target string) []testcase.TestCase {
	s.mu.Lock()
	defer s.mu.Unlock()

	cases := s.cases[target]
	if len(cases) == 0 {
		return []testcase.TestCase{}
	}
	out := make([]testcase.TestCase, len(cases))
	copy(out, cases)
	return out
}

// GetAll returns every target with its cases.
func (s *Store) GetAll() map[string][]testcase.TestCase {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]testcase.TestCase, len(s.cases))
	for target, cases := range s.cases {
		cp := make([]testcase.TestCase, len(cases))
		copy(cp, cases)
		out[target] = cp
	}
	return out
}

// Targets returns the registered target names, sorted.
func (s *Store) Targets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	targets := make([]string, 0, len(s.cases))
	for target := range s.cases {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	return targets
}

// ClearFor removes all cases registered for target.
func (s *Store) ClearFor(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cases, target)
}

// ClearAll removes every target's cases.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cases = make(map[string][]testcase.TestCase)
}

// Reset returns the store to its initial empty state.
func (s *Store) Reset() {
	s.ClearAll()
}
