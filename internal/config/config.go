package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spachava753/donate/crawler"
	"github.com/spachava753/donate/internal/models"
	"github.com/spachava753/donate/internal/util"
)

// DefaultConfigFile is read when no --config flag is given, if it exists.
const DefaultConfigFile = "donate.yaml"

// Environment variables that override configuration values.
const (
	EnvSearchRoot  = "DONATE_SEARCH_ROOT"
	EnvMatch       = "DONATE_MATCH"
	EnvExclude     = "DONATE_EXCLUDE"
	EnvMaxFileSize = "DONATE_MAX_FILE_SIZE"
	EnvLogLevel    = "DONATE_LOG_LEVEL"
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() models.Config {
	return models.Config{
		SearchRoot:  ".",
		Extensions:  crawler.SupportedExtensions(),
		Match:       crawler.MatchSubstring,
		MaxFileSize: "10M",
		LogLevel:    "warn",
		Run: models.RunConfig{
			Packages:     []string{"./..."},
			Pattern:      "^TestDonate",
			OutputFormat: models.OutputSummary,
		},
	}
}

// LoadConfig loads and parses a donate.yaml file.
func LoadConfig(path string) (models.Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDefault reads DefaultConfigFile from dir when present and falls back to
// DefaultConfig otherwise.
func LoadDefault(dir string) (models.Config, error) {
	path := filepath.Join(dir, DefaultConfigFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// ApplyEnv overrides cfg from the process environment and from a .env file
// in dir. Variables already set in the process win over the .env file; a
// missing .env file is not an error.
func ApplyEnv(cfg *models.Config, dir string) error {
	dotenv, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading .env: %w", err)
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if v, ok := lookup(EnvSearchRoot); ok && v != "" {
		cfg.SearchRoot = v
	}
	if v, ok := lookup(EnvMatch); ok && v != "" {
		cfg.Match = v
	}
	if v, ok := lookup(EnvExclude); ok {
		cfg.Exclude = v
	}
	if v, ok := lookup(EnvMaxFileSize); ok && v != "" {
		cfg.MaxFileSize = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}

	return Validate(*cfg)
}

// Validate checks values that cannot be back-filled with defaults.
func Validate(cfg models.Config) error {
	if _, err := crawler.MatcherByName(cfg.Match); err != nil {
		return fmt.Errorf("config match: %w", err)
	}

	supported := make(map[string]bool)
	for _, ext := range crawler.SupportedExtensions() {
		supported[ext] = true
	}
	for _, ext := range cfg.Extensions {
		if !supported[normalizeExt(ext)] {
			return fmt.Errorf("config extensions: unsupported extension %q", ext)
		}
	}

	if _, err := util.ParseSize(cfg.MaxFileSize); err != nil {
		return fmt.Errorf("config max_file_size: %w", err)
	}

	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("config log_level: %w", err)
	}

	switch cfg.Run.OutputFormat {
	case models.OutputSummary, models.OutputDetailed:
	default:
		return fmt.Errorf("config run.output_format: unknown format %q", cfg.Run.OutputFormat)
	}

	return nil
}

// CrawlerOptions translates cfg into crawler options.
func CrawlerOptions(cfg models.Config, logger *slog.Logger) ([]crawler.Option, error) {
	matcher, err := crawler.MatcherByName(cfg.Match)
	if err != nil {
		return nil, err
	}
	maxSize, err := util.ParseSize(cfg.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("parsing max_file_size %q: %w", cfg.MaxFileSize, err)
	}

	return []crawler.Option{
		crawler.WithMatcher(matcher),
		crawler.WithExtensions(cfg.Extensions...),
		crawler.WithExclude(cfg.Exclude),
		crawler.WithMaxFileSize(maxSize),
		crawler.WithLogger(logger),
	}, nil
}

// ParseLogLevel maps a config log level to a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

func applyDefaults(cfg *models.Config) {
	if cfg.SearchRoot == "" {
		cfg.SearchRoot = "."
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = crawler.SupportedExtensions()
	}
	if cfg.Match == "" {
		cfg.Match = crawler.MatchSubstring
	}
	if len(cfg.Run.Packages) == 0 {
		cfg.Run.Packages = []string{"./..."}
	}
	if cfg.Run.Pattern == "" {
		cfg.Run.Pattern = "^TestDonate"
	}
	if cfg.Run.OutputFormat == "" {
		cfg.Run.OutputFormat = models.OutputSummary
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
