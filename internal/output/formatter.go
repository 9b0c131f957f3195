// Package output renders analysis results for the command line tool.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	appanalysis "github.com/bryanwahyu/pyaudit/internal/application/analysis"
	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

// Formatter renders a batch or a dependency audit.
type Formatter interface {
	Format(batch *domain.BatchReport, w io.Writer) error
	FormatDependencies(rep *appanalysis.DependencyReport, w io.Writer) error
}

// Config holds output configuration
type Config struct {
	Format         string // text | json
	Color          bool
	Verbose        bool // include raw tool output
	HighComplexity int
}

// DefaultConfig returns the default output configuration
func DefaultConfig() Config {
	return Config{Format: "text", Color: true, HighComplexity: 10}
}

// NewFormatter picks a formatter by cfg.Format.
func NewFormatter(cfg Config) (Formatter, error) {
	if cfg.HighComplexity <= 0 {
		cfg.HighComplexity = 10
	}
	switch cfg.Format {
	case "", "text":
		return NewTextFormatter(cfg), nil
	case "json":
		return &JSONFormatter{}, nil
	}
	return nil, fmt.Errorf("unsupported format: %s", cfg.Format)
}

// FormatError formats an error for output
func FormatError(err error, format string) string {
	if format == "json" {
		b, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(b)
	}
	return fmt.Sprintf("Error: %v", err)
}
