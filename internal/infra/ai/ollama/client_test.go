package ollama

import (
	"context"
	"testing"

	"github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

func TestNewClient(t *testing.T) {
	c, err := NewClient("", "")
	if err != nil {
		t.Fatal(err)
	}
	if c.Model() != DefaultModel {
		t.Errorf("model = %q", c.Model())
	}

	for _, bad := range []string{"127.0.0.1:11434", "://nope"} {
		if _, err := NewClient(bad, "m"); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestCleanResponse(t *testing.T) {
	tests := []struct{ in, want string }{
		{`{"advice":"x"}`, `{"advice":"x"}`},
		{"```json\n{\"advice\":\"x\"}\n```", `{"advice":"x"}`},
		{"```\n{}\n```", "{}"},
		{"  \n", ""},
	}
	for _, tt := range tests {
		if got := cleanResponse(tt.in); got != tt.want {
			t.Errorf("cleanResponse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAdviseCancelled(t *testing.T) {
	// port 9 (discard) on loopback; the call should not outlive ctx
	c, err := NewClient("http://127.0.0.1:9", "m")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Advise(ctx, analysis.FileReport{FileName: "a.py"})
	// either the cancelled context or the refused connection wins
	if err == nil {
		t.Fatal("expected error")
	}
}
