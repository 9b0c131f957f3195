package local

import (
	"context"

	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
	"github.com/bryanwahyu/pyaudit/internal/infra/executor/probe"
)

// SubprocessProbe times a file in a separate isolated-mode interpreter
// bounded by the runner's timeout.
type SubprocessProbe struct {
	Python  string
	Runner  *Runner
	TempDir string
}

func (p *SubprocessProbe) Measure(ctx context.Context, f domain.UploadedFile) (domain.PerformanceSection, error) {
	var sec domain.PerformanceSection
	err := WithTempFile(p.TempDir, f.Name, f.Content, func(dir, path string) error {
		out, err := p.Runner.Run(ctx, "python", p.Python, "-I", "-c", probe.Harness, path)
		if err != nil {
			return err
		}
		seconds, err := probe.Decode(stripDir(out.Output, dir), stripDir(out.Stderr, dir))
		if err != nil {
			return err
		}
		sec = domain.PerformanceSection{Note: domain.DurationNote(seconds), Seconds: seconds}
		return nil
	})
	return sec, err
}
