package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

// maxSuggestions keeps local output compact.
const maxSuggestions = 20

// Local produces advice from the report alone, with no network calls. It
// returns the same JSON schema as the model-backed advisor.
type Local struct {
	HighComplexity int
}

func (l Local) Advise(_ context.Context, r analysis.FileReport) (string, error) {
	out := Advice{FileName: r.FileName}
	suggestions := make([]Suggestion, 0, 8)
	add := func(area, priority, summary, rec string) {
		suggestions = append(suggestions, Suggestion{Area: area, Priority: priority, Summary: summary, Recommendation: rec})
	}

	threshold := l.HighComplexity
	if threshold <= 0 {
		threshold = 10
	}

	sev := r.Stats.SecuritySeverity
	switch {
	case sev.High > 0:
		add("security", "high", fmt.Sprintf("bandit reported %d high severity issue(s).", sev.High), analysis.AdviceSecurity)
	case sev.Medium > 0:
		add("security", "medium", fmt.Sprintf("bandit reported %d medium severity issue(s).", sev.Medium), analysis.AdviceSecurity)
	case sev.Low > 0:
		add("security", "low", fmt.Sprintf("bandit reported %d low severity issue(s).", sev.Low), analysis.AdviceSecurity)
	}

	// paling kompleks dulu
	fns := append([]analysis.FunctionComplexity(nil), r.Complexity.Functions...)
	sort.SliceStable(fns, func(i, j int) bool { return fns[i].Complexity > fns[j].Complexity })
	for _, fn := range fns {
		if fn.Complexity < threshold {
			break
		}
		priority := "medium"
		if fn.Complexity >= 2*threshold {
			priority = "high"
		}
		add("complexity", priority,
			fmt.Sprintf("%s (line %d) has cyclomatic complexity %d.", fn.Qualified, fn.Line, fn.Complexity),
			"Split it into smaller functions or replace branching with lookup tables.")
	}
	if r.Complexity.Error != "" {
		add("complexity", "high", "The file could not be parsed: "+r.Complexity.Error, "Fix the syntax error before other findings can be trusted.")
	}

	if n := r.Stats.StyleIssues; n > 0 {
		priority := "low"
		if n > 20 {
			priority = "medium"
		}
		add("style", priority, fmt.Sprintf("flake8 reported %d style issue(s).", n), analysis.AdviceStyle)
	}

	if len(r.Complexity.Functions) > 0 && r.Stats.CommentCount < len(r.Complexity.Functions) {
		add("comments", "low",
			fmt.Sprintf("%d docstring(s) for %d function(s).", r.Stats.CommentCount, len(r.Complexity.Functions)),
			analysis.AdviceComments)
	}

	if r.Performance.Error != "" {
		add("performance", "medium", r.Performance.Note, "Make the module importable without side effects so it can be timed.")
	} else if r.Performance.Seconds >= 1 {
		add("performance", "medium", r.Performance.Note, analysis.AdvicePerformance)
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	out.Suggestions = suggestions

	high := false
	for _, sg := range suggestions {
		high = high || sg.Priority == "high"
	}
	switch {
	case len(suggestions) == 0:
		out.Advice = "No significant issues found. Keep style, security and tests in CI to keep it that way."
	case high:
		out.Advice = "Immediate action required: address the high priority findings first, then the rest in order."
	default:
		out.Advice = "Work through the suggestions in order; most are incremental cleanups."
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshal advice: %w", err)
	}
	return string(b), nil
}
