package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spachava753/donate/internal/config"
	"github.com/spachava753/donate/internal/models"
)

// exitCodeNames names the exit statuses of `go test`.
var exitCodeNames = map[int]string{
	0: "OK",
	1: "TESTS_FAILED",
	2: "USAGE_ERROR",
}

// ExitCodeName returns a readable name for a `go test` exit status.
func ExitCodeName(code int) string {
	if name, ok := exitCodeNames[code]; ok {
		return name
	}
	return "INTERNAL_ERROR"
}

// Executor runs donated tests through the go tool.
type Executor struct {
	goBin string
}

// NewExecutor creates an Executor using the go binary found on PATH.
func NewExecutor() *Executor {
	return &Executor{goBin: "go"}
}

// NewExecutorWithBinary creates an Executor that invokes the given go binary.
func NewExecutorWithBinary(goBin string) *Executor {
	return &Executor{goBin: goBin}
}

// Options configures a single run.
type Options struct {
	// Dir is the module directory `go test` runs in. Empty means the
	// working directory.
	Dir string
	// SearchRoot, when set, is exported to the tests as the fixture root.
	SearchRoot string
	Run        models.RunConfig
}

// BuildArgs returns the `go test` arguments for cfg.
func BuildArgs(cfg models.RunConfig) []string {
	args := []string{"test"}
	if cfg.Verbose {
		args = append(args, "-v")
	}
	if cfg.FailFast {
		args = append(args, "-failfast")
	}
	if cfg.Pattern != "" {
		args = append(args, "-run", cfg.Pattern)
	}
	args = append(args, cfg.Packages...)
	return args
}

// Run executes `go test` for the donated tests. A failing test run is
// reported in the result, not as an error; errors mean the run could not
// happen at all. In detailed mode the test output is streamed to out.
func (e *Executor) Run(ctx context.Context, opts Options, out io.Writer) (*models.RunResult, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		dir = wd
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("directory %s does not exist", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	args := BuildArgs(opts.Run)
	cmd := exec.CommandContext(ctx, e.goBin, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	if opts.SearchRoot != "" {
		root, err := filepath.Abs(opts.SearchRoot)
		if err != nil {
			return nil, fmt.Errorf("resolving search root: %w", err)
		}
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", config.EnvSearchRoot, root))
	}

	var buf bytes.Buffer
	if opts.Run.OutputFormat == models.OutputDetailed && out != nil {
		cmd.Stdout = io.MultiWriter(&buf, out)
		cmd.Stderr = io.MultiWriter(&buf, out)
	} else {
		cmd.Stdout = &buf
		cmd.Stderr = &buf
	}

	slog.Info("running donated tests", "dir", dir, "args", args)
	start := time.Now()
	err = cmd.Run()
	duration := time.Since(start)

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("running %s test: %w", e.goBin, err)
		}
		exitCode = exitErr.ExitCode()
	}

	result := &models.RunResult{
		Success:      exitCode == 0,
		ExitCode:     exitCode,
		ExitCodeName: ExitCodeName(exitCode),
		Args:         append([]string{e.goBin}, args...),
		Duration:     duration,
		Output:       buf.String(),
	}

	slog.Debug("donated tests finished",
		"exit_code", exitCode,
		"duration", duration)
	return result, nil
}
