package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

// maxPanel caps how much raw tool output goes into one prompt.
const maxPanel = 4000

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior Python reviewer. You receive the results of static analysis of one Python file: flake8 style output, bandit security output, per-function cyclomatic complexity, docstrings and a measured execution time. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- Use lowercase area values: style, complexity, security, comments, performance.
- Use lowercase priority values: high, medium, low.
- suggestions is an array of objects; include at least an area, a priority and a summary. Keep items concise.
- Base every suggestion on the analysis results given; do not invent findings.

Schema (example with empty values):
{
  "file_name": "<string>",
  "suggestions": [
    {
      "area": "<style|complexity|security|comments|performance>",
      "priority": "<high|medium|low>",
      "summary": "<string>",
      "recommendation": "<string>"
    }
  ],
  "advice": "<string>"
}`
}

type promptInput struct {
	FileName    string                        `json:"file_name"`
	Stats       analysis.Stats                `json:"stats"`
	Style       string                        `json:"flake8"`
	Security    string                        `json:"bandit"`
	Functions   []analysis.FunctionComplexity `json:"functions"`
	Docstrings  int                           `json:"docstrings"`
	Performance string                        `json:"performance"`
}

// GetUserPrompt builds the user message around a file report. Source text
// is never part of the prompt.
func GetUserPrompt(r analysis.FileReport) string {
	in := promptInput{
		FileName:    r.FileName,
		Stats:       r.Stats,
		Style:       clip(r.Style.Output, maxPanel),
		Security:    clip(r.Security.Output, maxPanel),
		Functions:   r.Complexity.Functions,
		Docstrings:  len(r.Comments.Comments),
		Performance: r.Performance.Note,
	}
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Sprintf("Review the analysis of %s and respond with the JSON per schema.", r.FileName)
	}
	return "Review this analysis and respond with the JSON per schema.\n" + string(b)
}

// Suggestion is one item of the advice schema.
type Suggestion struct {
	Area           string `json:"area"`
	Priority       string `json:"priority"`
	Summary        string `json:"summary"`
	Recommendation string `json:"recommendation"`
}

// Advice matches the schema used by the system prompt.
type Advice struct {
	FileName    string       `json:"file_name"`
	Suggestions []Suggestion `json:"suggestions"`
	Advice      string       `json:"advice"`
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
