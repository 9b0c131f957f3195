package output

import domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"

// DetermineExitCode returns an exit code based on the batch:
// 2 = nil batch, a failed section or high severity security findings,
// 1 = any other security, style or high complexity finding, 0 = clean.
func DetermineExitCode(batch *domain.BatchReport) int {
	if batch == nil {
		return 2
	}
	code := 0
	for i := range batch.Files {
		f := &batch.Files[i]
		if f.Failed() || f.Stats.SecuritySeverity.High > 0 {
			return 2
		}
		if f.Stats.SecurityIssues > 0 || f.Stats.StyleIssues > 0 || f.Stats.HighComplexityFunctions > 0 {
			code = 1
		}
	}
	return code
}
