package crawler_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spachava753/donate/crawler"
	"github.com/spachava753/donate/store"
	"github.com/spachava753/donate/testcase"
)

// fixtureTree lays out the files used by most tests:
//
//	test_func/test_func_1.json       1 case
//	test_func/test_func_2.json       2 cases
//	test_func/test_func_1.yaml       1 case
//	test_func/test_func_2.yaml       2 cases
//	test_func/invalid_test_func.yaml corrupt
//	other_func/other_func.json       1 case
func fixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"test_func/test_func_1.json": `{"input": {"a": 1}, "output": {"result": 2}, "description": "Test 1"}`,
		"test_func/test_func_2.json": `[
			{"input": {"a": 2}, "output": {"result": 4}, "description": "Test 2"},
			{"input": {"a": 3}, "output": {"result": 6}, "description": "Test 3"}
		]`,
		"test_func/test_func_1.yaml": "input:\n  b: 5\noutput:\n  result: 10\ndescription: YAML Test 1\n",
		"test_func/test_func_2.yaml": "- input: {b: 6}\n  output: {result: 12}\n  description: YAML Test 2\n" +
			"- input: {b: 7}\n  output: {result: 14}\n  description: YAML Test 3\n",
		"test_func/invalid_test_func.yaml": "- invalid: yaml: content:\n  indentation is wrong",
		"other_func/other_func.json":       `{"input": {"x": 10}, "output": {"result": 20}, "description": "Other Function"}`,
	}

	for name, content := range files {
		writeFile(t, root, name, content)
	}
	return root
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func newCrawler(t *testing.T, opts ...crawler.Option) (*crawler.Crawler, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	st := store.New(store.WithLogger(logger))
	return crawler.New(st, append([]crawler.Option{crawler.WithLogger(logger)}, opts...)...), &buf
}

func descriptions(cases []testcase.TestCase) []string {
	out := make([]string, 0, len(cases))
	for _, tc := range cases {
		out = append(out, tc.Description())
	}
	sort.Strings(out)
	return out
}

func TestCollect_JSONOnly(t *testing.T) {
	root := fixtureTree(t)
	c, _ := newCrawler(t, crawler.WithExtensions(".json"))

	cases, err := c.Collect(context.Background(), "test_func", root)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	want := []string{"Test 1", "Test 2", "Test 3"}
	if diff := cmp.Diff(want, descriptions(cases)); diff != "" {
		t.Errorf("cases mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_YAMLSkipsInvalidFile(t *testing.T) {
	root := fixtureTree(t)
	c, logs := newCrawler(t, crawler.WithExtensions("yaml"))

	cases, err := c.Collect(context.Background(), "test_func", root)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	want := []string{"YAML Test 1", "YAML Test 2", "YAML Test 3"}
	if diff := cmp.Diff(want, descriptions(cases)); diff != "" {
		t.Errorf("cases mismatch (-want +got):\n%s", diff)
	}

	if !strings.Contains(logs.String(), "skipping fixture file") || !strings.Contains(logs.String(), "invalid_test_func.yaml") {
		t.Errorf("expected warning about invalid file, logs:\n%s", logs.String())
	}
}

func TestCollect_AllFormats(t *testing.T) {
	root := fixtureTree(t)
	c, _ := newCrawler(t)

	cases, err := c.Collect(context.Background(), "test_func", root)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if len(cases) != 6 {
		t.Errorf("expected 6 cases, got %d: %v", len(cases), descriptions(cases))
	}
}

func TestCollect_ObjectVersusArray(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "single_one.json", `{"input": {"n": 1}, "output": 1}`)
	writeFile(t, root, "many_three.json", `[
		{"input": {"n": 1}, "output": 1},
		{"input": {"n": 2}, "output": 2},
		{"input": {"n": 3}, "output": 3}
	]`)

	c, _ := newCrawler(t)
	ctx := context.Background()

	single, err := c.Collect(ctx, "single", root)
	if err != nil {
		t.Fatalf("Collect single: %v", err)
	}
	if len(single) != 1 {
		t.Errorf("expected 1 case from object file, got %d", len(single))
	}

	many, err := c.Collect(ctx, "many", root)
	if err != nil {
		t.Fatalf("Collect many: %v", err)
	}
	if len(many) != 3 {
		t.Errorf("expected 3 cases from array file, got %d", len(many))
	}
}

func TestCollect_MalformedFileIsolation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "calc_1.json", `{"input": {"a": 1}, "output": 1}`)
	writeFile(t, root, "calc_2.json", `{"input": {"a": 2}, "output": 2}`)
	writeFile(t, root, "calc_3.json", `{"input": {"a": 3}, "output": `)

	c, _ := newCrawler(t)

	cases, err := c.Collect(context.Background(), "calc", root)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(cases) != 2 {
		t.Errorf("expected 2 cases, got %d", len(cases))
	}
}

func TestCollect_CrossFormatMerge(t *testing.T) {
	c, _ := newCrawler(t)

	cases, err := c.Collect(context.Background(), "sample_function_1", filepath.Join("testdata", "sample_function_1"))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if len(cases) != 4 {
		t.Fatalf("expected 4 cases, got %d", len(cases))
	}

	var inputs []map[string]any
	var outputs []any
	for _, tc := range cases {
		inputs = append(inputs, tc.Input())
		outputs = append(outputs, tc.Output())
	}

	wantInputs := []map[string]any{
		{"a": 1.0, "b": 2.0},
		{"a": -1.0, "b": 1.0},
		{"a": 3.0, "b": 4.0},
		{"a": 10.0, "b": -5.0},
	}
	if diff := cmp.Diff(wantInputs, inputs); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{3.0, 0.0, 7.0, 5.0}, outputs); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_TOML(t *testing.T) {
	c, _ := newCrawler(t)

	cases, err := c.Collect(context.Background(), "sample_function_2", "testdata")
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	want := []testcase.TestCase{
		testcase.MustNew(map[string]any{"name": "ada"}, "hello, ada", "greets by name"),
		testcase.MustNew(map[string]any{"name": ""}, "hello, ", "empty name"),
	}
	if diff := cmp.Diff(want, cases); diff != "" {
		t.Errorf("cases mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_SubstringMatching(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "func_1.json", `{"input": {"a": 1}, "output": 1, "description": "func 1"}`)
	writeFile(t, root, "func_2.yaml", "input: {a: 2}\noutput: 2\ndescription: func 2\n")

	c, _ := newCrawler(t)
	ctx := context.Background()

	cases, err := c.Collect(ctx, "func", root)
	if err != nil {
		t.Fatalf("Collect func: %v", err)
	}
	if diff := cmp.Diff([]string{"func 1", "func 2"}, descriptions(cases)); diff != "" {
		t.Errorf("func cases mismatch (-want +got):\n%s", diff)
	}

	other, err := c.Collect(ctx, "other_func", root)
	if err != nil {
		t.Fatalf("Collect other_func: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected other_func to match nothing, got %d cases", len(other))
	}
}

func TestCollect_LooseMatchAndExclude(t *testing.T) {
	root := fixtureTree(t)
	ctx := context.Background()

	t.Run("substring pulls in other_func", func(t *testing.T) {
		c, _ := newCrawler(t)
		cases, err := c.Collect(ctx, "func", root)
		if err != nil {
			t.Fatalf("Collect: %v", err)
		}
		if len(cases) != 7 {
			t.Errorf("expected 7 cases, got %d", len(cases))
		}
	})

	t.Run("exclude drops known false positives", func(t *testing.T) {
		c, _ := newCrawler(t, crawler.WithExclude("other"))
		cases, err := c.Collect(ctx, "func", root)
		if err != nil {
			t.Fatalf("Collect: %v", err)
		}
		if len(cases) != 6 {
			t.Errorf("expected 6 cases, got %d", len(cases))
		}
	})

	t.Run("exact matcher", func(t *testing.T) {
		c, _ := newCrawler(t, crawler.WithMatcher(crawler.ExactMatcher{}))
		cases, err := c.Collect(ctx, "other_func", root)
		if err != nil {
			t.Fatalf("Collect: %v", err)
		}
		if diff := cmp.Diff([]string{"Other Function"}, descriptions(cases)); diff != "" {
			t.Errorf("cases mismatch (-want +got):\n%s", diff)
		}

		none, err := c.Collect(ctx, "func", root)
		if err != nil {
			t.Fatalf("Collect: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("expected exact matcher to find nothing for func, got %d", len(none))
		}
	})
}

func TestCollect_MergesWithRegisteredCases(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "double.json", `[
		{"input": {"n": 1}, "output": 2, "description": "from file"},
		{"input": {"n": 5}, "output": 10, "description": "registered twice"}
	]`)

	c, _ := newCrawler(t)
	st := c.Store()
	if err := st.Register("double", map[string]any{"n": 0}, 0, "registered"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := st.Register("double", map[string]any{"n": 5}, 10, "registered twice"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	cases, err := c.Collect(context.Background(), "double", root)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var got []string
	for _, tc := range cases {
		got = append(got, tc.Description())
	}
	want := []string{"registered", "registered twice", "from file"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_RepeatedCrawlIsIdempotent(t *testing.T) {
	root := fixtureTree(t)
	c, _ := newCrawler(t)
	ctx := context.Background()

	for range 3 {
		if _, err := c.Collect(ctx, "test_func", root); err != nil {
			t.Fatalf("Collect: %v", err)
		}
	}

	if got := len(c.Store().Get("test_func")); got != 6 {
		t.Errorf("expected 6 cases after repeated crawls, got %d", got)
	}
}

func TestCollect_MalformedRecords(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "rec.json", `[
		{"input": {"a": 1}, "output": 1, "description": "ok"},
		{"output": 2},
		{"input": {"a": 3}},
		{"input": [1, 2], "output": 3},
		{"input": {"a": 4}, "output": 4, "description": 7},
		"not an object",
		{"input": {"a": 5}, "output": null, "description": "null output"}
	]`)

	c, logs := newCrawler(t)

	cases, err := c.Collect(context.Background(), "rec", root)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if diff := cmp.Diff([]string{"null output", "ok"}, descriptions(cases)); diff != "" {
		t.Errorf("cases mismatch (-want +got):\n%s", diff)
	}
	if got := strings.Count(logs.String(), "skipping malformed record"); got != 5 {
		t.Errorf("expected 5 record warnings, got %d:\n%s", got, logs.String())
	}
}

func TestCollect_MaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.json", `{"input": {"text": "`+strings.Repeat("x", 256)+`"}, "output": 1}`)

	c, _ := newCrawler(t, crawler.WithMaxFileSize(64))
	cases, err := c.Collect(context.Background(), "big", root)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(cases) != 0 {
		t.Errorf("expected oversized file to be skipped, got %d cases", len(cases))
	}
}

func TestCollect_CustomDecoder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "echo.txt", "hello")

	decodeText := func(data []byte) (any, error) {
		return map[string]any{
			"input":  map[string]any{"s": string(data)},
			"output": string(data),
		}, nil
	}

	c, _ := newCrawler(t, crawler.WithDecoder("txt", decodeText))
	cases, err := c.Collect(context.Background(), "echo", root)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(cases) != 1 || cases[0].Output() != "hello" {
		t.Errorf("unexpected cases: %v", cases)
	}
}

func TestCollect_Errors(t *testing.T) {
	c, _ := newCrawler(t)
	ctx := context.Background()

	t.Run("missing target", func(t *testing.T) {
		_, err := c.Collect(ctx, "", t.TempDir())
		if !errors.Is(err, store.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := c.Collect(ctx, "f", "/non/existent/path")
		if !errors.Is(err, crawler.ErrInvalidRoot) {
			t.Errorf("expected ErrInvalidRoot, got %v", err)
		}
	})

	t.Run("root is a file", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "f.json", "{}")
		_, err := c.Collect(ctx, "f", filepath.Join(root, "f.json"))
		if !errors.Is(err, crawler.ErrInvalidRoot) {
			t.Errorf("expected ErrInvalidRoot, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := c.Collect(cctx, "f", t.TempDir())
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestCollect_DefaultsToWorkingDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "wd_case.json", `{"input": {}, "output": true}`)
	t.Chdir(root)

	c, _ := newCrawler(t)
	cases, err := c.Collect(context.Background(), "wd_case", "")
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(cases) != 1 {
		t.Errorf("expected 1 case, got %d", len(cases))
	}
}

func TestCollect_SkipsUnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced")
	}

	root := t.TempDir()
	writeFile(t, root, "ok/add_1.json", `{"input": {"a": 1}, "output": 1}`)
	writeFile(t, root, "locked/add_2.json", `{"input": {"a": 2}, "output": 2}`)
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	c, _ := newCrawler(t)
	cases, err := c.Collect(context.Background(), "add", root)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(cases) != 1 {
		t.Errorf("expected 1 case, got %d", len(cases))
	}
}

func TestCollectTargets(t *testing.T) {
	root := fixtureTree(t)
	c, _ := newCrawler(t, crawler.WithConcurrency(2))

	results, err := c.CollectTargets(context.Background(), []string{"test_func", "other_func", "nonexistent_func", "test_func"}, root)
	if err != nil {
		t.Fatalf("CollectTargets: %v", err)
	}

	got := map[string]int{}
	for target, cases := range results {
		got[target] = len(cases)
	}
	want := map[string]int{"test_func": 6, "other_func": 1, "nonexistent_func": 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectTargets_Error(t *testing.T) {
	c, _ := newCrawler(t)
	_, err := c.CollectTargets(context.Background(), []string{"a", "b"}, "/non/existent/path")
	if !errors.Is(err, crawler.ErrInvalidRoot) {
		t.Errorf("expected ErrInvalidRoot, got %v", err)
	}
}

func TestFiles_AllFixtures(t *testing.T) {
	root := fixtureTree(t)
	writeFile(t, root, "notes.txt", "not a fixture")

	c, _ := newCrawler(t)
	paths, err := c.Files(context.Background(), "", root)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(paths) != 6 {
		t.Errorf("expected 6 fixture files, got %d: %v", len(paths), paths)
	}
}

func TestDecodeFile(t *testing.T) {
	root := fixtureTree(t)
	c, _ := newCrawler(t)

	t.Run("valid", func(t *testing.T) {
		res, err := c.DecodeFile(filepath.Join(root, "test_func", "test_func_2.yaml"))
		if err != nil {
			t.Fatalf("DecodeFile: %v", err)
		}
		if len(res.Cases) != 2 || len(res.Skipped) != 0 {
			t.Errorf("expected 2 cases and no skips, got %d and %d", len(res.Cases), len(res.Skipped))
		}
		if got := len(c.Store().GetAll()); got != 0 {
			t.Errorf("DecodeFile must not register cases, store has %d targets", got)
		}
	})

	t.Run("corrupt", func(t *testing.T) {
		_, err := c.DecodeFile(filepath.Join(root, "test_func", "invalid_test_func.yaml"))
		if !errors.Is(err, crawler.ErrMalformed) {
			t.Errorf("expected ErrMalformed, got %v", err)
		}
	})

	t.Run("unknown extension", func(t *testing.T) {
		writeFile(t, root, "x.ini", "a=b")
		_, err := c.DecodeFile(filepath.Join(root, "x.ini"))
		if !errors.Is(err, crawler.ErrMalformed) {
			t.Errorf("expected ErrMalformed, got %v", err)
		}
	})

	t.Run("record problems", func(t *testing.T) {
		writeFile(t, root, "bad.json", `[{"output": 1}, {"input": {}}]`)
		res, err := c.DecodeFile(filepath.Join(root, "bad.json"))
		if err != nil {
			t.Fatalf("DecodeFile: %v", err)
		}
		var kinds []crawler.ProblemKind
		for _, s := range res.Skipped {
			kinds = append(kinds, s.Kind)
		}
		want := []crawler.ProblemKind{crawler.ProblemMissingInput, crawler.ProblemMissingOutput}
		if diff := cmp.Diff(want, kinds); diff != "" {
			t.Errorf("kinds mismatch (-want +got):\n%s", diff)
		}
	})
}
