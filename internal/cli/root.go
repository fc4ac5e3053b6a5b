// Package cli implements the donate command line.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/spachava753/donate/internal/config"
	"github.com/spachava753/donate/internal/executor"
	"github.com/spachava753/donate/internal/models"
)

// ErrFailed is returned when a command ran to completion but found problems
// or failing tests. The command has already reported the details.
var ErrFailed = errors.New("command failed")

// App holds the state shared by all commands of one invocation.
type App struct {
	configPath string
	logLevel   string

	cfg      models.Config
	logger   *slog.Logger
	executor *executor.Executor
}

// NewRootCommand builds the donate command tree.
func NewRootCommand(version string) *cobra.Command {
	app := &App{executor: executor.NewExecutor()}
	return app.rootCommand(version)
}

func (a *App) rootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "donate",
		Short: "Donate test cases to functions",
		Long: `Collect fixture test cases stored as JSON, YAML or TOML files, check them
for problems and run the donated Go tests that consume them.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to the configuration file (default donate.yaml if present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(
		a.listCommand(),
		a.checkCommand(),
		a.runCommand(),
	)
	return root
}

// setup loads configuration and installs the logger before any command runs.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	var (
		cfg models.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadConfig(a.configPath)
	} else {
		cfg, err = config.LoadDefault(".")
	}
	if err != nil {
		return err
	}

	if err := config.ApplyEnv(&cfg, "."); err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
	return nil
}
