package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spachava753/donate/internal/executor"
	"github.com/spachava753/donate/internal/models"
)

type runFlags struct {
	verbose      bool
	failFast     bool
	outputFormat string
	directory    string
	pattern      string
}

func (a *App) runCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [packages...]",
		Short: "Run the donated tests",
		Long: `Run go test over the configured packages, restricted to donated tests by the
-run pattern (default ^TestDonate).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Pass -v to go test")
	cmd.Flags().BoolVarP(&flags.failFast, "failfast", "f", false, "Stop after the first failing test")
	cmd.Flags().StringVarP(&flags.outputFormat, "output-format", "o", "", "Output format: summary or detailed")
	cmd.Flags().StringVarP(&flags.directory, "directory", "d", "", "Module directory to run the tests in")
	cmd.Flags().StringVar(&flags.pattern, "pattern", "", "Test name pattern passed to -run")
	return cmd
}

// runConfig merges command line flags over the configured run settings.
func runConfig(cfg models.RunConfig, packages []string, flags runFlags) (models.RunConfig, error) {
	if len(packages) > 0 {
		cfg.Packages = packages
	}
	if flags.verbose {
		cfg.Verbose = true
	}
	if flags.failFast {
		cfg.FailFast = true
	}
	if flags.pattern != "" {
		cfg.Pattern = flags.pattern
	}
	if flags.outputFormat != "" {
		cfg.OutputFormat = models.OutputFormat(flags.outputFormat)
	}

	switch cfg.OutputFormat {
	case models.OutputSummary, models.OutputDetailed:
	default:
		return cfg, fmt.Errorf("--output-format: unknown format %q", cfg.OutputFormat)
	}
	return cfg, nil
}

func (a *App) run(cmd *cobra.Command, packages []string, flags runFlags) error {
	rc, err := runConfig(a.cfg.Run, packages, flags)
	if err != nil {
		return err
	}

	opts := executor.Options{Dir: flags.directory, Run: rc}
	// An unset search root leaves each test package searching its own directory.
	if root := a.cfg.SearchRoot; root != "" && root != "." {
		opts.SearchRoot = root
	}

	out := cmd.OutOrStdout()
	result, err := a.executor.Run(cmd.Context(), opts, out)
	if err != nil {
		return err
	}

	if rc.OutputFormat == models.OutputSummary {
		printSummary(out, result.Output)
	}

	if result.Success {
		fmt.Fprintln(out, color.GreenString("Test run succeeded"))
	} else {
		fmt.Fprintln(out, color.RedString("Test run failed"))
	}
	fmt.Fprintf(out, "Exit code: %d (%s)\n", result.ExitCode, result.ExitCodeName)
	fmt.Fprintf(out, "Duration: %.2fs\n", result.Duration.Seconds())

	if !result.Success {
		return ErrFailed
	}
	return nil
}

// printSummary prints the per-package status lines and failed test names of
// go test output.
func printSummary(w io.Writer, output string) {
	for line := range strings.Lines(output) {
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "ok "):
			fmt.Fprintln(w, color.GreenString(line))
		case strings.HasPrefix(line, "FAIL"), strings.HasPrefix(strings.TrimSpace(line), "--- FAIL"):
			fmt.Fprintln(w, color.RedString(line))
		case strings.HasPrefix(line, "?"):
			fmt.Fprintln(w, color.HiBlackString(line))
		}
	}
}
