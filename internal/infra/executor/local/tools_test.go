package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

// fakeTool records the path it was given, echoes the file back, and prints
// one flake8-style finding for it.
const fakeTool = `target="$1"
if [ "$1" = "-r" ]; then target="$2"; fi
echo "$target" > "$RECORD"
cat "$target"
echo "$target:1:1: E302 expected 2 blank lines"
exit 1`

func newRecordingRunner(t *testing.T) (*Runner, string) {
	t.Helper()
	record := filepath.Join(t.TempDir(), "record")
	r := NewRunner(5 * time.Second)
	r.Env = append(os.Environ(), "RECORD="+record)
	return r, record
}

func TestFileToolsRemoveTempFile(t *testing.T) {
	bin := t.TempDir()
	script := writeScript(t, bin, "fake", fakeTool)
	runner, record := newRecordingRunner(t)

	content := "def hello():\n    \"\"\"Say hi.\"\"\"\n    return 'hi'\n"
	file := domain.UploadedFile{Name: "hello.py", Content: content}

	tools := []*FileTool{
		NewFlake8(script, runner, t.TempDir()),
		NewBandit(script, runner, t.TempDir()),
	}
	for _, tool := range tools {
		t.Run(tool.Name(), func(t *testing.T) {
			out, err := tool.Run(context.Background(), file)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			data, err := os.ReadFile(record)
			if err != nil {
				t.Fatalf("read record: %v", err)
			}
			used := strings.TrimSpace(string(data))
			if filepath.Base(used) != "hello.py" {
				t.Errorf("tool got path %q, want basename hello.py", used)
			}
			if _, err := os.Stat(used); !os.IsNotExist(err) {
				t.Errorf("temp file %s outlived the call", used)
			}
			if !strings.HasPrefix(out.Output, content) {
				t.Errorf("content not byte-identical on disk: %q", out.Output)
			}
			if !strings.Contains(out.Output, "\nhello.py:1:1: E302") {
				t.Errorf("temp dir not stripped from output: %q", out.Output)
			}
			if out.ExitCode != 1 || out.Tool != tool.Name() {
				t.Errorf("ExitCode=%d Tool=%q", out.ExitCode, out.Tool)
			}
		})
	}
}

func TestFileToolRemovesTempFileOnTimeout(t *testing.T) {
	script := writeScript(t, t.TempDir(), "hang", `echo "$1" > "$RECORD"; exec sleep 5`)
	runner, _ := newRecordingRunner(t)
	runner.Timeout = 200 * time.Millisecond
	base := t.TempDir()

	_, err := NewFlake8(script, runner, base).Run(context.Background(), domain.UploadedFile{Name: "a.py", Content: "x = 1\n"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	entries, _ := os.ReadDir(base)
	if len(entries) != 0 {
		t.Errorf("temp dir left behind after timeout: %v", entries)
	}
}

func TestSafetyRunsCheck(t *testing.T) {
	script := writeScript(t, t.TempDir(), "safety", `echo "args:$*"; exit 64`)
	out, err := NewSafety(script, NewRunner(5*time.Second)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Output != "args:check\n" {
		t.Errorf("Output = %q, want args:check", out.Output)
	}
	if out.ExitCode != 64 || out.Tool != domain.ToolSafety {
		t.Errorf("ExitCode=%d Tool=%q", out.ExitCode, out.Tool)
	}
}
