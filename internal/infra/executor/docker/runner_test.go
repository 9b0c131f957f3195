package docker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
	"github.com/bryanwahyu/pyaudit/internal/infra/executor/local"
	"github.com/bryanwahyu/pyaudit/internal/infra/executor/probe"
)

func TestArgsSandboxFlags(t *testing.T) {
	r := NewRunner("python:3.12-slim", "128m", "0.5", "", local.NewRunner(time.Second))
	args := strings.Join(r.Args("/tmp/pyaudit-1", "job.py"), " ")
	for _, want := range []string{
		"run --rm",
		"--network none",
		"--read-only",
		"--memory 128m",
		"--cpus 0.5",
		"-v /tmp/pyaudit-1:/code:ro",
		"python:3.12-slim python -I -c",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("args missing %q: %s", want, args)
		}
	}
	if !strings.HasSuffix(args, " /code/job.py") {
		t.Errorf("args do not end with the mounted file: %s", args)
	}
}

// fakeDocker stands in for the docker CLI by printing a harness result.
func fakeDocker(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "docker")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMeasureDecodesResult(t *testing.T) {
	r := NewRunner("img", "64m", "1", t.TempDir(), local.NewRunner(5*time.Second))
	r.Docker = fakeDocker(t, `echo 'user output'; echo '`+probe.Marker+`{"seconds": 0.5}'`)

	sec, err := r.Measure(context.Background(), domain.UploadedFile{Name: "a.py", Content: "pass\n"})
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if sec.Note != "Execution time: 0.5000 seconds" || sec.Seconds != 0.5 {
		t.Errorf("section = %+v", sec)
	}
}

func TestMeasureException(t *testing.T) {
	r := NewRunner("img", "64m", "1", t.TempDir(), local.NewRunner(5*time.Second))
	r.Docker = fakeDocker(t, `echo '`+probe.Marker+`{"error": "division by zero"}'`)

	_, err := r.Measure(context.Background(), domain.UploadedFile{Name: "a.py", Content: "x\n"})
	var ee *domain.ExecutionError
	if !errors.As(err, &ee) || ee.Message != "division by zero" {
		t.Errorf("err = %v, want ExecutionError", err)
	}
}
