package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	appanalysis "github.com/bryanwahyu/pyaudit/internal/application/analysis"
	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

var started = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func sampleBatch() *domain.BatchReport {
	return &domain.BatchReport{
		ID:         "b-1",
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Files: []domain.FileReport{
			{
				FileName: "app.py",
				Stats: domain.Stats{
					LineCount: 11, CommentCount: 1, ComplexFunctions: 2,
					HighComplexityFunctions: 1, StyleIssues: 3, SecurityIssues: 1,
					SecuritySeverity: domain.SeverityCounts{Medium: 1, Total: 1},
				},
				Style: domain.ToolOutput{Output: "app.py:4:1: E302 expected 2 blank lines\n"},
				Complexity: domain.ComplexitySection{Functions: []domain.FunctionComplexity{
					{Qualified: "small", Line: 1, Complexity: 1},
					{Qualified: "Big.run", Line: 5, Complexity: 12},
				}},
				Comments:    domain.CommentSection{Comments: []string{"Module doc."}},
				Performance: domain.PerformanceSection{Note: domain.DurationNote(0.01), Seconds: 0.01},
			},
			{
				FileName:    "broken.py",
				Complexity:  domain.ComplexitySection{Functions: []domain.FunctionComplexity{}, Error: "syntax error at line 2"},
				Comments:    domain.CommentSection{Comments: []string{}, Error: "syntax error at line 2"},
				Performance: domain.PerformanceSection{Note: domain.ErrorNote("invalid syntax"), Error: "invalid syntax"},
			},
		},
	}
}

func TestTextFormatter(t *testing.T) {
	f := NewTextFormatter(Config{Verbose: true})
	var buf bytes.Buffer
	if err := f.Format(sampleBatch(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"PYTHON CODE ANALYSIS",
		"Batch:    b-1",
		"Duration: 1.5s",
		"app.py",
		"broken.py",
		"failed",
		"complexity: syntax error at line 2",
		"Big.run (line 5) = 12",
		"Security:   0 high, 1 medium, 0 low",
		"Execution time: 0.0100 seconds",
		"Error during execution: invalid syntax",
		"[flake8]",
		"E302 expected 2 blank lines",
		"Failures or high severity findings reported.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "small (line 1)") {
		t.Error("functions below the threshold should not be listed")
	}
}

func TestTextFormatterQuiet(t *testing.T) {
	f := NewTextFormatter(Config{})
	var buf bytes.Buffer
	f.Format(sampleBatch(), &buf)
	if strings.Contains(buf.String(), "[flake8]") {
		t.Error("raw tool output should only appear in verbose mode")
	}
}

func TestJSONFormatter(t *testing.T) {
	f, err := NewFormatter(Config{Format: "json"})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := f.Format(sampleBatch(), &buf); err != nil {
		t.Fatal(err)
	}
	var got domain.BatchReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.ID != "b-1" || len(got.Files) != 2 || got.Files[0].Stats.LineCount != 11 {
		t.Errorf("decoded %+v", got)
	}
}

func TestNewFormatterUnknown(t *testing.T) {
	if _, err := NewFormatter(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDependencies(t *testing.T) {
	rep := &appanalysis.DependencyReport{
		ToolOutput: domain.ToolOutput{Tool: "safety", Output: "No known security vulnerabilities found.\n"},
		CheckedAt:  started,
		Advice:     domain.AdviceDependencies,
	}
	var buf bytes.Buffer
	NewTextFormatter(Config{}).FormatDependencies(rep, &buf)
	if !strings.Contains(buf.String(), "DEPENDENCY AUDIT (safety)") ||
		!strings.Contains(buf.String(), "No known security vulnerabilities found.") ||
		!strings.Contains(buf.String(), domain.AdviceDependencies) {
		t.Errorf("output:\n%s", buf.String())
	}
}

func TestDetermineExitCode(t *testing.T) {
	clean := &domain.BatchReport{Files: []domain.FileReport{{FileName: "a.py"}}}
	warn := &domain.BatchReport{Files: []domain.FileReport{{Stats: domain.Stats{StyleIssues: 1}}}}
	high := &domain.BatchReport{Files: []domain.FileReport{{Stats: domain.Stats{SecuritySeverity: domain.SeverityCounts{High: 1}}}}}

	tests := []struct {
		name  string
		batch *domain.BatchReport
		want  int
	}{
		{"nil", nil, 2},
		{"clean", clean, 0},
		{"style", warn, 1},
		{"high security", high, 2},
		{"failed section", sampleBatch(), 2},
	}
	for _, tt := range tests {
		if got := DetermineExitCode(tt.batch); got != tt.want {
			t.Errorf("%s: exit = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestFormatError(t *testing.T) {
	err := errors.New("boom")
	if got := FormatError(err, "json"); got != `{"error":"boom"}` {
		t.Errorf("json = %s", got)
	}
	if got := FormatError(err, "text"); got != "Error: boom" {
		t.Errorf("text = %s", got)
	}
}
