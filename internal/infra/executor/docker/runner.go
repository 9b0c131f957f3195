package docker

import (
	"context"
	"os"
	"path"

	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
	"github.com/bryanwahyu/pyaudit/internal/infra/executor/local"
	"github.com/bryanwahyu/pyaudit/internal/infra/executor/probe"
)

// Runner measures uploads inside a throwaway container with no network,
// a read-only root filesystem and bounded memory, CPU and process count.
type Runner struct {
	Docker  string
	Image   string
	Memory  string
	CPUs    string
	TempDir string
	Exec    *local.Runner
}

func NewRunner(image, memory, cpus, tempDir string, exec *local.Runner) *Runner {
	return &Runner{
		Docker:  "docker",
		Image:   image,
		Memory:  memory,
		CPUs:    cpus,
		TempDir: tempDir,
		Exec:    exec,
	}
}

// Args builds the docker command line for a file mounted from hostDir.
func (r *Runner) Args(hostDir, file string) []string {
	return []string{
		"run", "--rm",
		"--network", "none",
		"--read-only",
		"--tmpfs", "/tmp:rw,size=16m",
		"--memory", r.Memory,
		"--cpus", r.CPUs,
		"--pids-limit", "64",
		"--cap-drop", "ALL",
		"--security-opt", "no-new-privileges",
		"-v", hostDir + ":/code:ro",
		r.Image,
		"python", "-I", "-c", probe.Harness, path.Join("/code", file),
	}
}

func (r *Runner) Measure(ctx context.Context, f domain.UploadedFile) (domain.PerformanceSection, error) {
	var sec domain.PerformanceSection
	err := local.WithTempFile(r.TempDir, f.Name, f.Content, func(dir, file string) error {
		// container root has no CAP_DAC_OVERRIDE, so the mount must be world-readable
		if err := os.Chmod(dir, 0o755); err != nil {
			return err
		}
		if err := os.Chmod(file, 0o644); err != nil {
			return err
		}
		out, err := r.Exec.Run(ctx, "docker", r.Docker, r.Args(dir, local.SafeBase(f.Name))...)
		if err != nil {
			return err
		}
		seconds, err := probe.Decode(out.Output, out.Stderr)
		if err != nil {
			return err
		}
		sec = domain.PerformanceSection{Note: domain.DurationNote(seconds), Seconds: seconds}
		return nil
	})
	return sec, err
}
