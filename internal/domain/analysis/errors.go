package analysis

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoFiles is returned when a batch contains no files.
	ErrNoFiles = errors.New("no files uploaded")
	// ErrBusy is returned when the server is already running the maximum
	// number of batches.
	ErrBusy = errors.New("analyzer busy, try again later")
)

// MissingToolError halts a session before any analysis runs.
type MissingToolError struct {
	Missing []string
}

func (e *MissingToolError) Error() string {
	return fmt.Sprintf("one or more required executables (%s) are not found; ensure they are installed and on PATH (pip install %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Missing, " "))
}

// ParseError reports source text that is not valid Python.
type ParseError struct {
	File   string
	Line   int
	Column int
}

func (e *ParseError) Error() string {
	name := e.File
	if name == "" {
		name = "<unknown>"
	}
	return fmt.Sprintf("invalid syntax in %s at line %d, column %d", name, e.Line, e.Column)
}

// ExecutionError is raised by the performance probe when the executed code
// fails. Message carries the exception description.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string { return "error during execution: " + e.Message }

// ToolError means an external tool could not produce output at all: it
// failed to start or ran past its deadline. Non-zero exit codes are not
// ToolErrors.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string { return fmt.Sprintf("%s: %v", e.Tool, e.Err) }

func (e *ToolError) Unwrap() error { return e.Err }
