package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

// Runner executes external tools with a deadline and captures their output.
type Runner struct {
	Timeout time.Duration
	Env     []string
}

func NewRunner(timeout time.Duration) *Runner {
	return &Runner{Timeout: timeout}
}

// Run starts bin with args and waits for it. A non-zero exit is reported
// through ToolOutput.ExitCode with a nil error; only start failures,
// timeouts and cancellation return a *domain.ToolError.
func (r *Runner) Run(ctx context.Context, tool, bin string, args ...string) (domain.ToolOutput, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, bin, args...)
	if len(r.Env) > 0 {
		cmd.Env = r.Env
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second

	err := cmd.Run()
	res := domain.ToolOutput{
		Tool:       tool,
		Output:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err == nil {
		return res, nil
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return res, &domain.ToolError{Tool: tool, Err: fmt.Errorf("timed out after %s", r.Timeout)}
	case ctx.Err() != nil:
		return res, &domain.ToolError{Tool: tool, Err: ctx.Err()}
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		res.ExitCode = ee.ExitCode()
		return res, nil
	}
	return res, &domain.ToolError{Tool: tool, Err: fmt.Errorf("run error: %w", err)}
}
