package analysis

import "testing"

func TestCountLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"single no newline", "x = 1", 1},
		{"single trailing newline", "x = 1\n", 1},
		{"two lines", "a\nb", 2},
		{"blank line kept", "a\n\nb\n", 3},
		{"crlf", "a\r\nb\r\n", 2},
		{"bare cr", "a\rb", 2},
		{"only newline", "\n", 1},
		{"unicode separator", "a\u2028b", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountLines(tt.in); got != tt.want {
				t.Errorf("CountLines(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
