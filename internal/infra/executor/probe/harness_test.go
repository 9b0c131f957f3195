package probe

import (
	"errors"
	"testing"

	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

func TestDecodeSeconds(t *testing.T) {
	out := "hello from user code\n\n" + Marker + `{"seconds": 0.125}` + "\n"
	got, err := Decode(out, "")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != 0.125 {
		t.Errorf("seconds = %v, want 0.125", got)
	}
}

func TestDecodeUsesLastMarker(t *testing.T) {
	out := Marker + `{"error": "spoofed"}` + "\n" + Marker + `{"seconds": 1.5}` + "\n"
	got, err := Decode(out, "")
	if err != nil || got != 1.5 {
		t.Errorf("Decode() = %v, %v; want 1.5, nil", got, err)
	}
}

func TestDecodeError(t *testing.T) {
	out := Marker + `{"error": "division by zero", "type": "ZeroDivisionError"}` + "\n"
	_, err := Decode(out, "")
	var ee *domain.ExecutionError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want *ExecutionError", err)
	}
	if ee.Message != "division by zero" {
		t.Errorf("message = %q", ee.Message)
	}
}

func TestDecodeNoMarkerUsesStderr(t *testing.T) {
	_, err := Decode("partial", "Traceback...\nMemoryError\n")
	var ee *domain.ExecutionError
	if !errors.As(err, &ee) || ee.Message != "MemoryError" {
		t.Errorf("err = %v, want ExecutionError(MemoryError)", err)
	}
	_, err = Decode("", "")
	if !errors.As(err, &ee) || ee.Message == "" {
		t.Errorf("err = %v, want non-empty ExecutionError", err)
	}
}
