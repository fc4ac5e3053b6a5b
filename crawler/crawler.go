// Package crawler finds fixture files for a target in a directory tree,
// decodes them into test cases and registers the cases in a store.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/spachava753/donate/internal/util"
	"github.com/spachava753/donate/store"
	"github.com/spachava753/donate/testcase"
)

// DefaultConcurrency bounds the number of targets crawled at once by
// CollectTargets.
const DefaultConcurrency = 4

// Crawler discovers and loads fixture files into a store.
type Crawler struct {
	store       *store.Store
	matcher     Matcher
	decoders    map[string]Decoder
	enabled     map[string]bool
	exclude     string
	maxFileSize int64
	concurrency int
	logger      *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMatcher replaces the file name matching strategy.
func WithMatcher(m Matcher) Option {
	return func(c *Crawler) {
		if m != nil {
			c.matcher = m
		}
	}
}

// WithExtensions restricts crawling to the given extensions. Extensions
// without a decoder are ignored.
func WithExtensions(exts ...string) Option {
	return func(c *Crawler) {
		if len(exts) == 0 {
			return
		}
		c.enabled = make(map[string]bool, len(exts))
		for _, ext := range exts {
			c.enabled[normalizeExt(ext)] = true
		}
	}
}

// WithDecoder registers a decoder for an additional extension and enables it.
func WithDecoder(ext string, d Decoder) Option {
	return func(c *Crawler) {
		ext = normalizeExt(ext)
		c.decoders[ext] = d
		c.enabled[ext] = true
	}
}

// WithExclude drops files whose name contains substring.
func WithExclude(substring string) Option {
	return func(c *Crawler) {
		c.exclude = substring
	}
}

// WithMaxFileSize skips files larger than n bytes. Zero means no limit.
func WithMaxFileSize(n int64) Option {
	return func(c *Crawler) {
		c.maxFileSize = n
	}
}

// WithConcurrency sets how many targets CollectTargets crawls at once.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the logger used for crawl diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Crawler that registers into st. A nil store gets a fresh one.
func New(st *store.Store, opts ...Option) *Crawler {
	if st == nil {
		st = store.New()
	}

	c := &Crawler{
		store:       st,
		matcher:     SubstringMatcher{},
		decoders:    defaultDecoders(),
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	c.enabled = make(map[string]bool, len(c.decoders))
	for ext := range c.decoders {
		c.enabled[ext] = true
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the store the crawler registers into.
func (c *Crawler) Store() *store.Store {
	return c.store
}

// Files returns the fixture files under root that belong to target, in
// traversal order. An empty target selects every fixture file. An empty root
// means the current working directory.
func (c *Crawler) Files(ctx context.Context, target, root string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	paths, err := util.WalkFiles(root, func(name string) bool {
		return c.accepts(name, target)
	})
	if err != nil {
		return nil, fmt.Errorf("finding fixtures for %q: %w", target, err)
	}

	c.logger.Debug("found fixture files", "target", target, "root", root, "count", len(paths))
	return paths, nil
}

func (c *Crawler) accepts(name, target string) bool {
	ext := extension(name)
	if !c.enabled[ext] || c.decoders[ext] == nil {
		return false
	}
	if target != "" && !c.matcher.Match(name, target) {
		return false
	}
	if c.exclude != "" && strings.Contains(name, c.exclude) {
		return false
	}
	return true
}

// FileResult is the outcome of decoding one fixture file.
type FileResult struct {
	Path    string
	Cases   []testcase.TestCase
	Skipped []RecordError
}

// DecodeFile decodes a single fixture file without touching the store.
// File-level problems return an error wrapping ErrMalformed; bad records are
// reported in FileResult.Skipped.
func (c *Crawler) DecodeFile(path string) (FileResult, error) {
	result := FileResult{Path: path}

	decode := c.decoders[extension(path)]
	if decode == nil {
		return result, fmt.Errorf("%s: no decoder for extension %q: %w", path, extension(path), ErrMalformed)
	}

	info, err := os.Stat(path)
	if err != nil {
		return result, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	if c.maxFileSize > 0 && info.Size() > c.maxFileSize {
		return result, fmt.Errorf("%s: size %d exceeds limit %d: %w", path, info.Size(), c.maxFileSize, ErrMalformed)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("reading fixture %s: %w", path, err)
	}

	doc, err := decode(data)
	if err != nil {
		return result, fmt.Errorf("%s: %v: %w", path, err, ErrMalformed)
	}

	raws, err := records(doc)
	if err != nil {
		return result, fmt.Errorf("%s: %v: %w", path, err, ErrMalformed)
	}

	for i, raw := range raws {
		tc, kind, err := parseRecord(raw)
		if err != nil {
			result.Skipped = append(result.Skipped, RecordError{
				Path:    path,
				Index:   i,
				Kind:    kind,
				Message: err.Error(),
			})
			continue
		}
		result.Cases = append(result.Cases, tc)
	}

	return result, nil
}

// Collect crawls root for target's fixture files, registers every valid case
// and returns all cases now held for target, including ones registered
// before the crawl. Unreadable files and bad records are logged and skipped.
func (c *Crawler) Collect(ctx context.Context, target, root string) ([]testcase.TestCase, error) {
	if target == "" {
		return nil, fmt.Errorf("collecting test cases: target name must be provided: %w", store.ErrInvalidArgument)
	}

	paths, err := c.Files(ctx, target, root)
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := c.DecodeFile(path)
		if err != nil {
			c.logger.Warn("skipping fixture file", "target", target, "path", path, "error", err)
			continue
		}

		for _, skipped := range result.Skipped {
			c.logger.Warn("skipping malformed record",
				"target", target,
				"path", skipped.Path,
				"index", skipped.Index,
				"kind", skipped.Kind,
				"error", skipped.Message)
		}

		if err := c.store.RegisterCases(target, result.Cases); err != nil {
			return nil, err
		}
		c.logger.Debug("loaded fixture file", "target", target, "path", path, "cases", len(result.Cases))
	}

	return c.store.Get(target), nil
}

// CollectTargets runs Collect for each distinct target. Targets are crawled
// concurrently; the first error cancels the rest.
func (c *Crawler) CollectTargets(ctx context.Context, targets []string, root string) (map[string][]testcase.TestCase, error) {
	results := make(map[string][]testcase.TestCase, len(targets))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	seen := make(map[string]bool, len(targets))
	for _, target := range targets {
		if seen[target] {
			continue
		}
		seen[target] = true

		g.Go(func() error {
			cases, err := c.Collect(ctx, target, root)
			if err != nil {
				return fmt.Errorf("collecting %s: %w", target, err)
			}
			mu.Lock()
			results[target] = cases
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// resolveRoot defaults an empty root to the working directory and checks that
// it is a directory.
func resolveRoot(root string) (string, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving working directory: %w", err)
		}
		root = wd
	}
	root = filepath.Clean(root)

	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("search root %s does not exist: %w", root, ErrInvalidRoot)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("search root %s is not a directory: %w", root, ErrInvalidRoot)
	}
	return root, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
