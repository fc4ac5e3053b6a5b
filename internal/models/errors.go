package models

// ErrorType identifies the category of a fixture problem. Record-level
// problems carry the crawler's problem kind (e.g. "missing_input").
type ErrorType string

const (
	ErrFileMalformed  ErrorType = "file_malformed"
	ErrFileUnreadable ErrorType = "file_unreadable"
)
