package analysis

import (
	"fmt"
	"time"
)

// Tool names of the external analyzers.
const (
	ToolFlake8 = "flake8"
	ToolBandit = "bandit"
	ToolSafety = "safety"
)

// RequiredTools are the executables that must be resolvable before any
// file is analyzed.
var RequiredTools = []string{ToolFlake8, ToolBandit, ToolSafety}

// UploadedFile is one uploaded source buffer.
type UploadedFile struct {
	Name    string
	Content string
}

// ToolOutput is the opaque result of one external tool invocation.
type ToolOutput struct {
	Tool       string `json:"tool"`
	Output     string `json:"output"`
	Stderr     string `json:"stderr,omitempty"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Lines returns the number of lines of the captured output.
func (o ToolOutput) Lines() int { return CountLines(o.Output) }

// FunctionComplexity is the score of one function or method definition.
type FunctionComplexity struct {
	Name       string `json:"name"`
	Qualified  string `json:"qualified_name"`
	Line       int    `json:"line"`
	EndLine    int    `json:"end_line"`
	Complexity int    `json:"complexity"`
	IsMethod   bool   `json:"is_method"`
	ClassName  string `json:"class_name,omitempty"`
}

// ComplexitySection holds the complexity visitor output for one file.
type ComplexitySection struct {
	Functions []FunctionComplexity `json:"functions"`
	Error     string               `json:"error,omitempty"`
}

// CommentSection holds the docstring-like literals found in one file.
type CommentSection struct {
	Comments []string `json:"comments"`
	Error    string   `json:"error,omitempty"`
}

// PerformanceSection is the outcome of the sandboxed execution probe.
type PerformanceSection struct {
	Note    string  `json:"note"`
	Seconds float64 `json:"seconds,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// SeverityCounts value object
type SeverityCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Total  int `json:"total"`
}

// Stats are the numbers rendered on the statistic cards.
type Stats struct {
	LineCount               int            `json:"line_count"`
	CommentCount            int            `json:"comment_count"`
	ComplexFunctions        int            `json:"complex_functions"`
	SecurityIssues          int            `json:"security_issues"`
	HighComplexityFunctions int            `json:"high_complexity_functions"`
	StyleIssues             int            `json:"style_issues"`
	SecuritySeverity        SeverityCounts `json:"security_severity"`
}

// FileReport is the analysis result of a single uploaded file.
type FileReport struct {
	ID          string             `json:"id"`
	BatchID     string             `json:"batch_id"`
	FileName    string             `json:"file_name"`
	AnalyzedAt  time.Time          `json:"analyzed_at"`
	DurationMS  int64              `json:"duration_ms"`
	Stats       Stats              `json:"stats"`
	Style       ToolOutput         `json:"style"`
	Complexity  ComplexitySection  `json:"complexity"`
	Security    ToolOutput         `json:"security"`
	Comments    CommentSection     `json:"comments"`
	Performance PerformanceSection `json:"performance"`
}

// Failed reports whether any section recorded an error.
func (r *FileReport) Failed() bool {
	return r.Style.Error != "" || r.Security.Error != "" ||
		r.Complexity.Error != "" || r.Comments.Error != "" ||
		r.Performance.Error != ""
}

// BatchReport groups the reports of one upload.
type BatchReport struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Files      []FileReport `json:"files"`
	ArchiveURL string       `json:"archive_url,omitempty"`
}

// ToolAvailability maps required tool names to whether they were found.
type ToolAvailability struct {
	Tools   map[string]bool `json:"tools"`
	Missing []string        `json:"missing"`
}

// OK reports whether every required tool is present.
func (a ToolAvailability) OK() bool { return len(a.Missing) == 0 }

// DurationNote formats a measured execution time for display.
func DurationNote(seconds float64) string {
	return fmt.Sprintf("Execution time: %.4f seconds", seconds)
}

// ErrorNote formats a failed execution for display.
func ErrorNote(msg string) string {
	return "Error during execution: " + msg
}
