package models

// OutputFormat selects how `donate run` reports a test run.
type OutputFormat string

const (
	OutputSummary  OutputFormat = "summary"
	OutputDetailed OutputFormat = "detailed"
)

// Config represents the parsed donate.yaml configuration.
type Config struct {
	SearchRoot  string    `yaml:"search_root" json:"search_root"`
	Extensions  []string  `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	Exclude     string    `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Match       string    `yaml:"match" json:"match"`
	MaxFileSize string    `yaml:"max_file_size,omitempty" json:"max_file_size,omitempty"`
	LogLevel    string    `yaml:"log_level,omitempty" json:"log_level,omitempty"`
	Run         RunConfig `yaml:"run" json:"run"`
}

// RunConfig controls the `go test` invocation made by `donate run`.
type RunConfig struct {
	Packages     []string     `yaml:"packages" json:"packages"`
	Pattern      string       `yaml:"pattern" json:"pattern"`
	Verbose      bool         `yaml:"verbose" json:"verbose"`
	FailFast     bool         `yaml:"fail_fast" json:"fail_fast"`
	OutputFormat OutputFormat `yaml:"output_format" json:"output_format"`
}
