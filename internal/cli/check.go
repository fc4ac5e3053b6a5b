package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spachava753/donate/crawler"
	"github.com/spachava753/donate/internal/config"
	"github.com/spachava753/donate/internal/models"
)

type checkFlags struct {
	json      bool
	directory string
}

func (a *App) checkCommand() *cobra.Command {
	var flags checkFlags

	cmd := &cobra.Command{
		Use:   "check [target]",
		Short: "Validate fixture files",
		Long: `Decode every fixture file for target, or every fixture file under the search
root when no target is given, and report malformed files and records.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 1 {
				target = args[0]
			}
			return a.check(cmd, target, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.json, "json", false, "Print the report as JSON")
	cmd.Flags().StringVarP(&flags.directory, "directory", "d", "", "Directory to search for fixture files")
	return cmd
}

func (a *App) check(cmd *cobra.Command, target string, flags checkFlags) error {
	cfg := a.cfg
	if flags.directory != "" {
		cfg.SearchRoot = flags.directory
	}

	opts, err := config.CrawlerOptions(cfg, a.logger)
	if err != nil {
		return err
	}
	c := crawler.New(nil, opts...)

	paths, err := c.Files(cmd.Context(), target, cfg.SearchRoot)
	if err != nil {
		return err
	}

	report := models.CheckReport{Files: len(paths), Problems: []models.Problem{}}
	bar := newProgressBar(cmd.ErrOrStderr(), len(paths))

	for _, path := range paths {
		if err := cmd.Context().Err(); err != nil {
			return err
		}

		result, err := c.DecodeFile(path)
		if err != nil {
			kind := models.ErrFileUnreadable
			if errors.Is(err, crawler.ErrMalformed) {
				kind = models.ErrFileMalformed
			}
			report.Problems = append(report.Problems, models.Problem{
				Path:    path,
				Type:    kind,
				Message: err.Error(),
			})
		}

		report.Cases += len(result.Cases)
		for _, skipped := range result.Skipped {
			index := skipped.Index
			report.Problems = append(report.Problems, models.Problem{
				Path:    skipped.Path,
				Index:   &index,
				Type:    models.ErrorType(skipped.Kind),
				Message: skipped.Message,
			})
		}
		bar.Advance(len(report.Problems))
	}
	bar.Finish()

	out := cmd.OutOrStdout()
	if flags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	} else {
		printReport(out, report)
	}

	if !report.OK() {
		return ErrFailed
	}
	return nil
}

func printReport(w io.Writer, report models.CheckReport) {
	for _, p := range report.Problems {
		location := p.Path
		if p.Index != nil {
			location = fmt.Sprintf("%s[%d]", p.Path, *p.Index)
		}
		fmt.Fprintf(w, "%s %s: %s\n", color.RedString("✗"), location, p.Message)
	}

	summary := fmt.Sprintf("Checked %d files, %d cases, %d problems", report.Files, report.Cases, len(report.Problems))
	if report.OK() {
		fmt.Fprintln(w, color.GreenString(summary))
	} else {
		fmt.Fprintln(w, color.RedString(summary))
	}
}
