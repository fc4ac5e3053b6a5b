package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spachava753/donate/crawler"
	"github.com/spachava753/donate/internal/config"
	"github.com/spachava753/donate/testcase"
)

type listFlags struct {
	json      bool
	directory string
	exclude   string
	match     string
}

// caseView is the JSON shape of a listed test case.
type caseView struct {
	Input       map[string]any `json:"input"`
	Output      any            `json:"output"`
	Description string         `json:"description,omitempty"`
}

func (a *App) listCommand() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list [target...]",
		Short: "List the test cases donated to targets",
		Long: `Collect and print the test cases for each target. Without targets, every
fixture file stem under the search root is listed as a target.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.list(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.json, "json", false, "Print cases as JSON")
	cmd.Flags().StringVarP(&flags.directory, "directory", "d", "", "Directory to search for fixture files")
	cmd.Flags().StringVar(&flags.exclude, "exclude", "", "Skip fixture files whose name contains this substring")
	cmd.Flags().StringVar(&flags.match, "match", "", "File matching strategy: substring or exact")
	return cmd
}

func (a *App) list(cmd *cobra.Command, targets []string, flags listFlags) error {
	cfg := a.cfg
	if flags.directory != "" {
		cfg.SearchRoot = flags.directory
	}
	if flags.exclude != "" {
		cfg.Exclude = flags.exclude
	}
	if flags.match != "" {
		cfg.Match = flags.match
	}

	opts, err := config.CrawlerOptions(cfg, a.logger)
	if err != nil {
		return err
	}
	c := crawler.New(nil, opts...)

	if len(targets) == 0 {
		targets, err = fixtureTargets(cmd, c, cfg.SearchRoot)
		if err != nil {
			return err
		}
	}

	results, err := c.CollectTargets(cmd.Context(), targets, cfg.SearchRoot)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flags.json {
		return printCasesJSON(out, results)
	}

	if len(results) == 0 {
		fmt.Fprintln(out, color.YellowString("No fixture files found"))
		return nil
	}
	printCases(out, results)
	return nil
}

// fixtureTargets derives target names from the file stems of every fixture
// under root. Files with an empty stem, such as ".json", name no target.
func fixtureTargets(cmd *cobra.Command, c *crawler.Crawler, root string) ([]string, error) {
	paths, err := c.Files(cmd.Context(), "", root)
	if err != nil {
		return nil, err
	}

	var targets []string
	for _, path := range paths {
		name := filepath.Base(path)
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if stem != "" && !slices.Contains(targets, stem) {
			targets = append(targets, stem)
		}
	}
	slices.Sort(targets)
	return targets, nil
}

func sortedTargets(results map[string][]testcase.TestCase) []string {
	targets := make([]string, 0, len(results))
	for target := range results {
		targets = append(targets, target)
	}
	slices.Sort(targets)
	return targets
}

func printCases(w io.Writer, results map[string][]testcase.TestCase) {
	bold := color.New(color.Bold)

	for _, target := range sortedTargets(results) {
		cases := results[target]
		fmt.Fprintf(w, "%s %s\n", bold.Sprint(target), color.CyanString("(%d cases)", len(cases)))

		for i, tc := range cases {
			input, _ := json.Marshal(tc.Input())
			output, _ := json.Marshal(tc.Output())
			line := fmt.Sprintf("  %d. %s -> %s", i+1, input, output)
			if tc.Description() != "" {
				line += "  " + color.HiBlackString(tc.Description())
			}
			fmt.Fprintln(w, line)
		}
	}
}

func printCasesJSON(w io.Writer, results map[string][]testcase.TestCase) error {
	views := make(map[string][]caseView, len(results))
	for target, cases := range results {
		list := make([]caseView, 0, len(cases))
		for _, tc := range cases {
			list = append(list, caseView{
				Input:       tc.Input(),
				Output:      tc.Output(),
				Description: tc.Description(),
			})
		}
		views[target] = list
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(views); err != nil {
		return fmt.Errorf("encoding cases: %w", err)
	}
	return nil
}
