package local

import (
	"context"

	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

// FileTool runs a path-based analyzer against a temp copy of an upload.
type FileTool struct {
	name    string
	bin     string
	args    func(path string) []string
	runner  *Runner
	tempDir string
}

// NewFlake8 runs `flake8 <path>`.
func NewFlake8(bin string, r *Runner, tempDir string) *FileTool {
	return &FileTool{
		name:    domain.ToolFlake8,
		bin:     bin,
		args:    func(path string) []string { return []string{path} },
		runner:  r,
		tempDir: tempDir,
	}
}

// NewBandit runs `bandit -r <path>`.
func NewBandit(bin string, r *Runner, tempDir string) *FileTool {
	return &FileTool{
		name:    domain.ToolBandit,
		bin:     bin,
		args:    func(path string) []string { return []string{"-r", path} },
		runner:  r,
		tempDir: tempDir,
	}
}

func (t *FileTool) Name() string { return t.name }

func (t *FileTool) Run(ctx context.Context, f domain.UploadedFile) (domain.ToolOutput, error) {
	var out domain.ToolOutput
	err := WithTempFile(t.tempDir, f.Name, f.Content, func(dir, path string) error {
		var runErr error
		out, runErr = t.runner.Run(ctx, t.name, t.bin, t.args(path)...)
		out.Output = stripDir(out.Output, dir)
		out.Stderr = stripDir(out.Stderr, dir)
		return runErr
	})
	if out.Tool == "" {
		out.Tool = t.name
	}
	return out, err
}

// EnvTool runs an analyzer against the installed package environment.
type EnvTool struct {
	name   string
	bin    string
	args   []string
	runner *Runner
}

// NewSafety runs `safety check`.
func NewSafety(bin string, r *Runner) *EnvTool {
	return &EnvTool{name: domain.ToolSafety, bin: bin, args: []string{"check"}, runner: r}
}

func (t *EnvTool) Name() string { return t.name }

func (t *EnvTool) Run(ctx context.Context) (domain.ToolOutput, error) {
	return t.runner.Run(ctx, t.name, t.bin, t.args...)
}
