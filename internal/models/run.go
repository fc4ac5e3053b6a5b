package models

import "time"

// RunResult summarizes one `go test` run over donated tests.
type RunResult struct {
	Success      bool          `json:"success"`
	ExitCode     int           `json:"exit_code"`
	ExitCodeName string        `json:"exit_code_name"`
	Args         []string      `json:"args"`
	Duration     time.Duration `json:"duration"`
	Output       string        `json:"output,omitempty"`
}

// CheckReport is the outcome of validating fixture files.
type CheckReport struct {
	Files    int       `json:"files"`
	Cases    int       `json:"cases"`
	Problems []Problem `json:"problems"`
}

// OK reports whether every file and record decoded cleanly.
func (r CheckReport) OK() bool {
	return len(r.Problems) == 0
}

// Problem is one malformed file or record found by a check.
type Problem struct {
	Path    string    `json:"path"`
	Index   *int      `json:"index,omitempty"` // nil for file-level problems
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}
